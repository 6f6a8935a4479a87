package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"top100/internal/config"
	"top100/internal/db"
	"top100/internal/email"
	"top100/internal/events"
	"top100/internal/jobs"
	"top100/internal/metrics"
	"top100/internal/server"
	"top100/internal/storage"
	"top100/internal/verification"
	"top100/internal/workflow"
)

const shutdownTimeout = 15 * time.Second

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "listen address")
	return cmd
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	logger := commonRun(cfg)

	program, err := config.LoadProgram(cfg.ProgramFile)
	if err != nil {
		return fmt.Errorf("failed to load program file: %w", err)
	}

	policy, err := verification.ParsePolicy(cfg.VerificationPolicy)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("migrations completed")

	objects, uploadsDir, closeObjects, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeObjects()

	publisher, changes, closeEvents, err := openEvents(cfg, database, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	metrics.Init(database)

	uploader := storage.NewImageUploader(objects, database, cfg.MaxImageBytes, logger)
	wf := workflow.New(
		verification.NewGate(database, policy),
		database,
		uploader,
		database,
		workflow.Config{
			Timeout:         cfg.CollaboratorTimeout,
			SaveRetries:     cfg.SaveRetries,
			PublishOnSave:   cfg.PublishOnSave,
			MaxImageBytes:   cfg.MaxImageBytes,
			SocialPlatforms: program.SocialPlatforms,
			Amount:          program.FeatureRequest.Amount,
			Currency:        program.FeatureRequest.Currency,
			ProfileURL:      cfg.PublicProfileURL,
		},
		logger,
	)
	notifier := email.NewNotifier(cfg, email.NewService(cfg), database, logger)

	srv := server.New(cfg, logger, server.Options{})
	if err := srv.RegisterRoutes(ctx, server.Deps{
		DB:         database,
		Workflow:   wf,
		Images:     uploader,
		Notifier:   notifier,
		Publisher:  publisher,
		Changes:    changes,
		Program:    program,
		UploadsDir: uploadsDir,
	}); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	scheduler := jobs.NewScheduler(logger)
	sweeper := jobs.NewOrphanSweeper(database, objects, cfg.OrphanGraceTime, logger)
	if err := scheduler.AddSweeper(cfg.OrphanSchedule, sweeper, 5*time.Minute); err != nil {
		return fmt.Errorf("invalid orphan sweep schedule %q: %w", cfg.OrphanSchedule, err)
	}
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(stopCtx)

	if err := srv.Shutdown(shutdownTimeout); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// openObjectStore returns the configured image store. uploadsDir is set when
// images live on local disk and must be served by this process.
func openObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, string, func(), error) {
	switch cfg.StorageBackend {
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, "", nil, err
		}
		return store, "", func() { store.Close() }, nil
	case "local", "":
		store, err := storage.NewLocalStore(cfg.StorageDir, "/uploads")
		if err != nil {
			return nil, "", nil, err
		}
		return store, store.Dir(), func() {}, nil
	}
	return nil, "", nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// openEvents returns the change publisher and the source admin consoles
// subscribe to.
func openEvents(cfg *config.Config, database *db.DB, logger *slog.Logger) (events.Publisher, events.Source, func(), error) {
	switch cfg.EventsTransport {
	case "nats":
		broker, err := events.NewNATSBroker(cfg.NATSURL, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return broker, broker, broker.Close, nil
	case "poll":
		// Writes land in the database; the poller turns them into changes.
		return events.Nop{}, events.NewPoller(database, cfg.PollInterval, logger), func() {}, nil
	case "memory", "":
		broker := events.NewMemoryBroker(64)
		return broker, broker, func() {}, nil
	}
	return nil, nil, nil, errors.New("unknown events transport " + cfg.EventsTransport)
}
