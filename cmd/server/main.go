// Package main is the entry point for the ledger API server. It wires the
// database, cache, metrics and services, then serves HTTP until interrupted.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusledger/internal/config"
	"campusledger/internal/logger"
	"campusledger/internal/metrics"
	"campusledger/internal/repositories"
	"campusledger/internal/repositories/cache"
	"campusledger/internal/routes"
	"campusledger/internal/services/event"
	"campusledger/internal/services/exchange"
	"campusledger/internal/services/ledger"
	"campusledger/internal/services/payment"
	"campusledger/internal/services/purchase"
	"campusledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log, cleanup := logger.New()
	defer cleanup()

	db, err := repositories.Connect(repositories.DefaultDBConfig())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	var cacheService *cache.Service
	if config.GetEnv("REDIS_DISABLED", "") != "true" {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     config.GetEnv("REDIS_HOST", "localhost"),
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		cacheService = cache.NewService(client, 5*time.Minute)
		defer cacheService.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewPrometheus(registry)

	store := repositories.NewStore(db)
	walletService := wallet.NewService(store, cacheOrNil(cacheService), log)
	exchangeService := exchange.NewService(store, log)
	ledgerService := ledger.NewService(store, exchangeService, collector, invalidatorOrNil(cacheService), log)
	eventService := event.NewService(store, ledgerService, log)
	paymentService := payment.NewService(store, ledgerService, log)
	purchaseService := purchase.NewService(store, ledgerService, log)

	app := fiber.New(fiber.Config{
		AppName:      "campusledger",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(requestLogger(log))

	routes.SetupRoutes(app, routes.Dependencies{
		DB:       db,
		Cache:    cacheService,
		Registry: registry,
		Log:      log,
		Wallet:   walletService,
		Ledger:   ledgerService,
		Exchange: exchangeService,
		Event:    eventService,
		Payment:  paymentService,
		Purchase: purchaseService,
	})

	addr := ":" + config.GetEnv("PORT", "8080")
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

// cacheOrNil keeps the wallet service's CacheOperator nil-safe when Redis
// is disabled.
func cacheOrNil(c *cache.Service) wallet.CacheOperator {
	if c == nil {
		return nil
	}
	return c
}

// invalidatorOrNil does the same for the ledger's CacheInvalidator.
func invalidatorOrNil(c *cache.Service) ledger.CacheInvalidator {
	if c == nil {
		return nil
	}
	return c
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}
