// Package logger configures the application's structured logger.
package logger

import (
	"campusledger/internal/config"

	"go.uber.org/zap"
)

// New builds a zap logger for the current environment: JSON output in
// production, console output in development. The returned cleanup flushes
// buffered entries and should be deferred by the caller.
func New() (*zap.Logger, func()) {
	var log *zap.Logger
	var err error
	if config.IsProduction() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	cleanup := func() {
		_ = log.Sync()
	}
	return log, cleanup
}
