package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/emberhall/vanir/internal"
	"github.com/emberhall/vanir/internal/cart"
	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/handler"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/payment"
	"github.com/emberhall/vanir/internal/postgres"
	"github.com/emberhall/vanir/internal/register"
	"github.com/emberhall/vanir/internal/router"
	"github.com/emberhall/vanir/internal/routes"
	"github.com/emberhall/vanir/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	sentryCleanup, err := telemetry.InitSentry(cfg.Sentry, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer sentryCleanup()

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Event publisher: NATS when configured, in-process bus otherwise
	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("Event publisher initialized", "transport", "nats", "url", cfg.NATS.URL)
	} else {
		publisher = events.NewBus()
		logger.Info("Event publisher initialized", "transport", "in-process")
	}

	// Payment method catalog
	registry, err := payment.NewRegistry(payment.DefaultMethods()...)
	if err != nil {
		return fmt.Errorf("failed to build payment method catalog: %w", err)
	}

	// Payment gateway
	var gateway payment.Gateway
	switch cfg.Gateway.Provider {
	case "stripe":
		stripeGateway, err := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
		if err != nil {
			return fmt.Errorf("failed to configure stripe gateway: %w", err)
		}
		gateway = stripeGateway
		logger.Info("Payment gateway initialized", "provider", "stripe", "currency", cfg.Stripe.Currency)
	default:
		opts := []payment.SimulatedGatewayOption{
			payment.WithLatency(
				time.Duration(cfg.Gateway.MinLatencyMs)*time.Millisecond,
				time.Duration(cfg.Gateway.MaxLatencyMs)*time.Millisecond,
			),
		}
		if cfg.Gateway.Seed != 0 {
			opts = append(opts, payment.WithSeed(cfg.Gateway.Seed))
		}
		gateway = payment.NewSimulatedGateway(opts...)
		logger.Info("Payment gateway initialized", "provider", "simulated",
			"min_latency_ms", cfg.Gateway.MinLatencyMs,
			"max_latency_ms", cfg.Gateway.MaxLatencyMs,
		)
	}

	// Core processors
	stockStore := postgres.NewStockStore(pool)
	inventoryProcessor := inventory.NewProcessor(stockStore, publisher)
	paymentProcessor := payment.NewProcessor(registry, gateway, publisher)

	// Register session
	session := register.NewSession(
		cfg.RegisterID,
		cart.New(cfg.TaxRate, publisher),
		paymentProcessor,
		inventoryProcessor,
		logger,
	)
	logger.Info("Register session opened", "session_id", session.ID, "tax_rate", cfg.TaxRate)
	telemetry.SetOperator(cfg.RegisterID)

	// Business metrics
	telemetry.InitBusinessMetrics(cfg.Metrics.Namespace)
	metrics := middleware.NewMetrics(cfg.Metrics.Namespace)

	// Route dependencies
	posDeps := routes.POSDeps{
		Handler: handler.NewPOSHandler(session, registry, logger),
	}
	inventoryDeps := routes.InventoryDeps{
		Handler: handler.NewInventoryHandler(inventoryProcessor, stockStore, logger),
	}
	opsDeps := routes.OpsDeps{
		MetricsHandler: metrics.Handler(),
	}

	// Rate limiting for the whole API
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		telemetry.SentryMiddleware(),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		rateLimiter.Middleware,
		middleware.WithOperator,
		middleware.WithRequestLogger(logger),
	)

	routes.RegisterPOSRoutes(r, posDeps)
	routes.RegisterInventoryRoutes(r, inventoryDeps)
	routes.RegisterOpsRoutes(r, opsDeps)

	// Start the server with graceful shutdown. In-flight settlements are
	// given time to reach a terminal state before the listener dies.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting register server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
