// Package metrics defines the collector interface the ledger services
// report through, with a prometheus-backed implementation and a no-op for
// tests.
package metrics

import "time"

// Collector receives operational measurements from the services.
type Collector interface {
	RecordTransaction(txType string, amount float64)
	RecordError(operation, errType string)
	RecordOperationDuration(operation string, d time.Duration)
}

// Noop is a Collector that discards everything.
type Noop struct{}

func (Noop) RecordTransaction(string, float64)          {}
func (Noop) RecordError(string, string)                 {}
func (Noop) RecordOperationDuration(string, time.Duration) {}
