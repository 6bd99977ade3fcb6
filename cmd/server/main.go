// Package main is the entry point for the memorial billing API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memorial/internal/config"
	"memorial/internal/core/docstore"
	"memorial/internal/core/tx"
	"memorial/internal/domain/audit"
	"memorial/internal/domain/billing"
	"memorial/internal/domain/catalog"
	"memorial/internal/domain/clients"
	"memorial/internal/domain/reports"
	v1 "memorial/internal/infrastructure/http/v1"
	"memorial/internal/infrastructure/http/v1/handlers"
	"memorial/internal/infrastructure/numerator"
	"memorial/internal/infrastructure/storage/docrepo"
	"memorial/internal/infrastructure/storage/memory"
	"memorial/internal/infrastructure/storage/postgres"
	"memorial/pkg/logger"
)

const version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "optional config file (yaml, json, toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting memorial server", "storage", cfg.Storage.Driver, "env", cfg.App.Env)

	// --- Storage ---
	store, txManager, db, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer closeStore()

	// --- Repositories ---
	contractRepo := docrepo.NewContractRepo(store)
	paymentRepo := docrepo.NewPaymentRepo(store)
	auditRepo, err := docrepo.NewAuditRepo(store, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit repository", "error", err)
	}

	// --- Services ---
	auditService := audit.NewService(auditRepo)
	catalogService := catalog.NewService(docrepo.NewCatalogRepo(store), txManager)
	clientService := clients.NewService(docrepo.NewClientRepo(store), txManager)
	billingService := billing.NewService(billing.ServiceConfig{
		Contracts: contractRepo,
		Payments:  paymentRepo,
		Catalog:   catalogService,
		Audit:     auditService,
		Numerator: numerator.New(store),
		TxManager: txManager,
		Billing:   cfg.Billing,
	})
	reportService := reports.NewService(reports.BillingSource{
		Contracts:   contractRepo,
		PaymentRepo: paymentRepo,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		Database:      db,
		StorageDriver: cfg.Storage.Driver,
		Version:       version,
		ReleaseMode:   !cfg.App.IsDevelopment(),
		Billing:       billingService,
		Catalog:       catalogService,
		Clients:       clientService,
		Reports:       reportService,
		Audit:         auditService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// openStorage builds the document store selected by cfg.Storage.Driver.
// The returned Database is nil for the in-memory store.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (docstore.Store, tx.Manager, handlers.Database, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return store, memory.NewTxManager(store), nil, func() {}, nil

	case config.DriverPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		log.Info("database connection established")

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, nil, nil, nil, err
			}
		}

		txOpts := postgres.DefaultTxOptions()
		txOpts.StatementTimeout = cfg.Database.StatementTimeout
		txManager := postgres.NewTxManagerWithOptions(pool, txOpts)

		return postgres.NewDocumentStore(txManager), txManager, pool, pool.Close, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
