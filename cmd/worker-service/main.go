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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/mkowalczyk/shop-exporter/internal/config"
	"github.com/mkowalczyk/shop-exporter/internal/datasource"
	"github.com/mkowalczyk/shop-exporter/internal/events"
	"github.com/mkowalczyk/shop-exporter/internal/metrics"
	"github.com/mkowalczyk/shop-exporter/internal/notifier"
	"github.com/mkowalczyk/shop-exporter/internal/storage"
	"github.com/mkowalczyk/shop-exporter/internal/worker"
	"github.com/mkowalczyk/shop-exporter/shared/logger"
	"github.com/mkowalczyk/shop-exporter/shared/postgresql"
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
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting export worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	// Initialize the outbound mail sender
	sender, err := notifier.New(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	// Initialize the optional event publisher
	publisher, err := events.NewPublisher(&cfg.Events, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer publisher.Close()

	// Metrics sink: Prometheus when enabled, otherwise a no-op
	var sink metrics.Sink = &metrics.NoopSink{}
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		sink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLogger.Info("Metrics endpoint listening",
				slog.Int("port", cfg.Metrics.Port),
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.Error("Metrics server failed",
					slog.Any("error", err),
				)
			}
		}()
	}

	db := dbClient.DB()
	jobs := storage.NewJobs(db, appLogger.Logger)
	schedules := storage.NewSchedules(db, appLogger.Logger)
	templates := storage.NewTemplates(db, appLogger.Logger)
	users := storage.NewUsers(db)
	source := datasource.NewPostgres(db, appLogger.Logger, datasource.Config{
		TermsMetaKey: cfg.Exports.TermsMetaKey,
	}, nil, nil)

	exportWorker := worker.NewExportWorker(
		worker.ExportWorkerConfig{
			BatchSize:       cfg.Worker.BatchSize,
			MaxJobsPerTick:  cfg.Worker.MaxJobsPerTick,
			TickBudget:      cfg.Worker.TickBudget,
			UploadsDir:      cfg.Exports.UploadsDir,
			DownloadBaseURL: cfg.Exports.DownloadBaseURL,
			ExpiryDays:      cfg.Exports.DownloadExpiryDays,
		},
		jobs, templates, source, sender, users, publisher, sink, appLogger.Logger,
	)
	scheduleWorker := worker.NewScheduleWorker(schedules, jobs, sink, appLogger.Logger)

	// Cron drives the tick loops; the workers themselves are one-shot
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Worker.ExportTickSpec, func() {
		if err := exportWorker.Tick(ctx); err != nil {
			appLogger.Error("Export tick failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("invalid export tick spec: %w", err)
	}

	if _, err := c.AddFunc(cfg.Worker.ScheduleTickSpec, func() {
		if err := scheduleWorker.Tick(ctx); err != nil {
			appLogger.Error("Schedule tick failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule tick spec: %w", err)
	}

	if cfg.Worker.PurgeTickSpec != "" && cfg.Worker.PurgeRetention > 0 {
		purgeWorker := worker.NewPurgeWorker(jobs, cfg.Worker.PurgeRetention, appLogger.Logger)
		if _, err := c.AddFunc(cfg.Worker.PurgeTickSpec, func() {
			if err := purgeWorker.Tick(ctx); err != nil {
				appLogger.Error("Purge tick failed", slog.Any("error", err))
			}
		}); err != nil {
			return fmt.Errorf("invalid purge tick spec: %w", err)
		}
	}

	c.Start()
	appLogger.Info("Worker service started successfully",
		slog.String("export_tick_spec", cfg.Worker.ExportTickSpec),
		slog.String("schedule_tick_spec", cfg.Worker.ScheduleTickSpec),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	appLogger.Info("Received signal, shutting down gracefully",
		slog.String("signal", sig.String()),
	)

	// Stop scheduling new ticks and wait for the running ones to finish
	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		appLogger.Info("All ticks drained")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		appLogger.Warn("Shutdown timeout reached with ticks still running")
	}

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsSrv.Shutdown(shutdownCtx)
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}
