package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shoppay/internal/bootstrap"
	"shoppay/internal/config"
	cronpkg "shoppay/internal/cron"
	"shoppay/internal/events"
	"shoppay/internal/metrics"
	"shoppay/internal/middleware"
	"shoppay/internal/payment/settlement"
	"shoppay/internal/payment/vnpay"
	"shoppay/internal/pkg/httpclient"
	"shoppay/internal/repository"
	"shoppay/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := newLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database, cfg.Server.Env == "development")
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}
	orders := repository.NewOrderRepository(db)

	// --- Metrics push (optional) ---
	if err := metrics.Push(cfg.Metrics.PushURL, cfg.Metrics.PushInterval, cfg.Metrics.PushLabels); err != nil {
		logger.Warn("Metrics push disabled", zap.Error(err))
	}

	// --- order.paid events (Kafka, optional) ---
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		logger.Info("Publishing order.paid events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// --- Payment gateway + settlement ---
	gwCfg := cfg.VNPay.Gateway()
	if err := gwCfg.Validate(); err != nil {
		logger.Warn("VNPAY gateway is not fully configured", zap.Error(err))
	}
	gateway := vnpay.New(gwCfg)
	coordinator := settlement.NewCoordinator(orders,
		settlement.WithTolerance(cfg.VNPay.AmountTolerance),
		settlement.WithNotifier(publisher),
		settlement.WithLogger(logger.Named("settlement")),
	)

	// --- IPN Deduper (Redis with in-memory fallback) ---
	callbackDeduper, dedupeErr := middleware.NewCallbackDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Redis.DedupTTL,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for IPN dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", zap.Error(err))
	}
	router.Setup(e, orders, sqlDB, gateway, coordinator, callbackDeduper, cfg.Frontend.URL, logger)

	// --- Cron Scheduler ---
	querier := vnpay.NewQueryClient(gwCfg, httpclient.New().WithTimeout(20*time.Second))
	scheduler := cronpkg.New(cfg.Reconcile, orders, querier, coordinator, logger.Named("cron"))
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start cron scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting shoppay server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush pending events
	if err := publisher.Close(); err != nil {
		logger.Error("Failed to close event publisher", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap() error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg, false)
	if err != nil {
		return err
	}
	return bootstrap.MigrateAndSeed(db)
}
