package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"repohealth/ai"
	"repohealth/analyzer"
	"repohealth/api"
	"repohealth/config"
	"repohealth/db"
	"repohealth/fetcher"
	"repohealth/github"
	"repohealth/logger"
	"repohealth/service"
)

const shutdownTimeout = 30 * time.Second

// App errors
var (
	ErrAppInit     = errors.New("application initialization error")
	ErrAppShutdown = errors.New("application shutdown error")
)

// App owns the long-lived dependencies shared by every command.
type App struct {
	config   *config.Config
	database *db.DB
	github   *github.Client
	analyses *service.Analyzer
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewApp loads configuration, sets up logging and connects every dependency.
func NewApp() (*App, error) {
	cfg := config.NewConfig()
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("%w: failed to load configuration: %v", ErrAppInit, err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize logger: %v", ErrAppInit, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	database, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: failed to initialize database: %v", ErrAppInit, err)
	}

	client, err := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubTimeout)
	if err != nil {
		cancel()
		_ = database.Close()
		return nil, fmt.Errorf("%w: %v", ErrAppInit, err)
	}

	completer := ai.NewOllamaClient(ai.OllamaConfig{
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Token:   cfg.AIToken,
		Timeout: cfg.AITimeout,
	})

	analyses := service.NewAnalyzer(database, fetcher.New(client), analyzer.New(completer))

	logger.Info("Application initialized successfully",
		zap.String("github_api", cfg.GitHubAPIURL),
		zap.String("ai_base_url", cfg.AIBaseURL),
		zap.String("ai_model", completer.ModelName()),
		zap.String("schedule", cfg.Schedule),
		zap.String("schedule_tz", cfg.ScheduleLocation.String()))

	return &App{
		config:   cfg,
		database: database,
		github:   client,
		analyses: analyses,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Serve runs the HTTP API and the scheduler until an interrupt arrives.
func (a *App) Serve() error {
	scheduler, err := service.NewScheduler(a.config.Schedule, a.config.ScheduleLocation, a.database, a.analyses)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Config{
		Port:               a.config.HTTPPort,
		CORSOrigins:        a.config.CORSOrigins,
		ActivityWindowDays: a.config.ActivityWindowDays,
	}, a.database, a.github, a.analyses)

	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", a.config.HTTPPort))
		serverErr <- server.Listen()
	}()

	select {
	case err := <-serverErr:
		a.cancel()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = scheduler.Stop(stopCtx)
		return fmt.Errorf("http server failed: %w", err)
	case <-a.waitForShutdown():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrAppShutdown, errors.Join(errs...))
	}
	return nil
}

// Sweep runs one scheduler pass in the foreground.
func (a *App) Sweep() (service.SweepSummary, error) {
	scheduler, err := service.NewScheduler(a.config.Schedule, a.config.ScheduleLocation, a.database, a.analyses)
	if err != nil {
		return service.SweepSummary{}, err
	}
	return scheduler.RunOnce(a.ctx)
}

// waitForShutdown returns a channel that closes on SIGINT or SIGTERM
func (a *App) waitForShutdown() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, initiating graceful shutdown")
		case <-a.ctx.Done():
		}
		a.cancel()
		close(done)
	}()
	return done
}

// Close performs cleanup operations
func (a *App) Close() error {
	logger.Info("Closing application")
	a.cancel()
	if err := a.database.Close(); err != nil {
		return fmt.Errorf("%w: failed to close database: %v", ErrAppShutdown, err)
	}
	return nil
}
