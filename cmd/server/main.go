package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripledger/internal/app"
	"tripledger/internal/config"
	"tripledger/internal/handler"
	"tripledger/internal/ledger"
	internalRedis "tripledger/internal/redis"
	"tripledger/internal/repository"
	"tripledger/internal/repository/postgres"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	if !common.IsHexAddress(cfg.Ledger.AdminAddress) {
		log.Fatalf("ADMIN_ADDRESS must be a valid hex address, got %q", cfg.Ledger.AdminAddress)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Apply schema migrations before opening the pool.
	if err := app.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("Migrations applied")

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, err := wireServer(ctx, db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to initialize ledger: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, error) {
	// Initialize stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)

	tripRepo := postgres.NewTripRepository(db)
	registryRepo := postgres.NewDriverRegistryRepository(db)
	stateRepo := postgres.NewStateRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	txManager := postgres.NewTxManager(db)

	// Initialize the state machine and restore its state.
	notifier := ledger.NewNotifier()
	stateMachine := ledger.New(txManager, tripRepo, registryRepo, stateRepo, eventRepo, notifier, cacheStore)

	seed := repository.LedgerState{
		Administrator: common.HexToAddress(cfg.Ledger.AdminAddress),
	}
	seed.Rates.Base = cfg.Ledger.BaseFare
	seed.Rates.PerKm = cfg.Ledger.PerKmFare
	seed.Rates.PerMinute = cfg.Ledger.PerMinuteFare

	if err := stateMachine.Load(ctx, seed); err != nil {
		return nil, err
	}

	// Initialize handlers.
	driverHandler := handler.NewDriverHandler(stateMachine)
	fareHandler := handler.NewFareHandler(stateMachine)
	tripHandler := handler.NewTripHandler(stateMachine)
	eventHandler := handler.NewEventHandler(stateMachine)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		DriverHandler: driverHandler,
		FareHandler:   fareHandler,
		TripHandler:   tripHandler,
		EventHandler:  eventHandler,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
