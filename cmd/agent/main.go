package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hamidrprogrammer/print-agent/internal/api"
	"github.com/hamidrprogrammer/print-agent/internal/config"
	"github.com/hamidrprogrammer/print-agent/internal/dispatch"
	"github.com/hamidrprogrammer/print-agent/internal/download"
	"github.com/hamidrprogrammer/print-agent/internal/event"
	"github.com/hamidrprogrammer/print-agent/internal/history"
	"github.com/hamidrprogrammer/print-agent/internal/pdfcheck"
	"github.com/hamidrprogrammer/print-agent/internal/printer"
	"github.com/hamidrprogrammer/print-agent/internal/session"
	"github.com/hamidrprogrammer/print-agent/internal/store"
	"github.com/hamidrprogrammer/print-agent/shared/logger"
	"github.com/hamidrprogrammer/print-agent/shared/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("PRINT_AGENT_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/agent/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The token is a secret; the environment takes precedence over the file.
	if token := os.Getenv("PRINT_AGENT_TOKEN"); token != "" {
		cfg.Session.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting print agent",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize the remote store
	jobStore, closeStore, err := initStore(&cfg.Store, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	appLogger.Info("Store connection established",
		slog.String("backend", cfg.Store.Backend),
	)

	// Open the local history journal
	var journal *history.Journal
	if cfg.History.Enabled {
		journal, err = history.Open(cfg.History.Path, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to open history journal: %w", err)
		}
		defer journal.Close()
	}

	// Wire the pipeline
	events := event.NewQueue(cfg.Events.Buffer)
	downloader := download.New(cfg.Download.Dir, cfg.Download.Timeout, appLogger.Logger)
	executor := printer.NewExecutor(cfg.Printing.BackendPath, appLogger.Logger)

	dispatcherCfg := &dispatch.Config{
		Logger:   appLogger.Logger,
		Store:    jobStore,
		Fetcher:  downloader,
		Printer:  executor,
		Events:   events,
		JobsPath: store.JobsPath(cfg.Session.Token),
	}
	if cfg.Printing.ValidatePayloads {
		dispatcherCfg.Validate = pdfcheck.Validate
	}
	if journal != nil {
		dispatcherCfg.Journal = journal
	}
	dispatcher := dispatch.New(dispatcherCfg)

	sess := session.New(&session.Config{
		Logger:     appLogger.Logger,
		Store:      jobStore,
		Events:     events,
		Dispatcher: dispatcher,
		UserID:     cfg.Session.UserID,
		Token:      cfg.Session.Token,
		Printers:   cfg.Printing.Printers,
		AppVersion: cfg.App.Version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sess.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect session: %w", err)
	}

	// Local presentation API
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	deps := &api.Dependencies{
		Logger:   appLogger.Logger,
		Pipeline: dispatcher,
		Events:   events,
	}
	if journal != nil {
		deps.History = journal
	}
	router := api.SetupRouter(deps)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	appLogger.Info("Print agent is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		appLogger.Error("Local API failed",
			slog.Any("error", err),
		)
		runErr = fmt.Errorf("local API failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Local API forced to shutdown",
			slog.Any("error", err),
		)
	}

	// Disconnect drains in-flight jobs and clears the connected flag.
	done := make(chan struct{})
	go func() {
		sess.Disconnect()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Session disconnected gracefully")
	case <-time.After(cfg.Server.ShutdownTimeout):
		appLogger.Warn("Session shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Print agent shutdown complete")
	return runErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initStore initializes the remote store backend
func initStore(cfg *config.StoreConfig, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		// Offline backend for local development; jobs must be seeded by
		// hand through the store API.
		return store.NewMemoryStore(), func() {}, nil
	default:
		client, err := redis.NewClient(&redis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			DialTimeout:   cfg.Redis.DialTimeout,
			RetryAttempts: cfg.Redis.RetryAttempts,
			RetryInterval: cfg.Redis.RetryInterval,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client.GetClient(), logger), func() { client.Close() }, nil
	}
}
