package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crosspost/internal/api"
	"crosspost/internal/connector"
	"crosspost/internal/connector/devto"
	"crosspost/internal/connector/mastodon"
	"crosspost/internal/notifier"
	"crosspost/internal/scheduler"
	"crosspost/internal/service"
	"crosspost/internal/storage/postgres"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planner, publish workers and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			return withEnv(ctx, func(ctx context.Context, e *env) error {
				go func() {
					sigCh := make(chan os.Signal, 1)
					signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
					select {
					case sig := <-sigCh:
						e.logger.Info("received shutdown signal", "signal", sig)
						cancel()
					case <-ctx.Done():
					}
				}()
				return serve(ctx, e)
			})
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, logger := e.cfg, e.logger

	rabbitMQ, err := notifier.NewRabbitMQ(notifier.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()

	txManager := postgres.NewTransactionManager(e.db)
	projectStore := postgres.NewProjectStore(e.db)
	intentStore := postgres.NewIntentStore(e.db)
	attemptStore := postgres.NewAttemptStore(e.db, txManager)
	registry := e.registry()

	var connectors []connector.Connector
	if pc := cfg.Platforms.DevTo; pc.IsEnabled() {
		connectors = append(connectors, devto.New(devto.Config{
			BaseURL:       pc.BaseURL,
			Timeout:       pc.Timeout,
			RatePerSecond: pc.RatePerSecond,
			Burst:         pc.Burst,
		}, logger))
	}
	if pc := cfg.Platforms.Mastodon; pc.IsEnabled() {
		connectors = append(connectors, mastodon.New(mastodon.Config{
			BaseURL:       pc.BaseURL,
			Timeout:       pc.Timeout,
			RatePerSecond: pc.RatePerSecond,
			Burst:         pc.Burst,
			CharLimit:     pc.CharLimit,
		}, logger))
	}
	connectorSet := connector.NewSet(connectors...)

	orchestrator := service.NewOrchestrator(
		projectStore,
		attemptStore,
		registry,
		connectorSet,
		nil,
		rabbitMQ,
		logger,
		cfg.Publish,
	)

	planner := scheduler.NewPlanner(intentStore, registry, scheduler.Config{
		PollInterval:    cfg.Scheduler.PollInterval,
		LivenessTimeout: cfg.Scheduler.LivenessTimeout,
	}, logger)
	if err := planner.Load(ctx); err != nil {
		return err
	}
	orchestrator.SetPlanner(planner)

	pool := scheduler.NewPool(scheduler.PoolConfig{
		Size:          cfg.Scheduler.Workers,
		IntentTimeout: cfg.Publish.InFlightTTL,
		BusyDelay:     cfg.Scheduler.LivenessTimeout,
	}, planner, orchestrator, logger)

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.New(api.Config{
			Planner:     planner,
			Connections: registry,
			Projects:    projectStore,
			Status:      service.NewStatusService(projectStore, attemptStore),
			Logger:      logger,
		}),
	}

	logger.Info("starting crosspost",
		"addr", cfg.HTTP.Addr,
		"workers", cfg.Scheduler.Workers,
		"platforms", connectorSet.Platforms(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return planner.Start(gctx)
	})
	g.Go(func() error {
		return pool.Run(gctx, planner.Emitted())
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("crosspost stopped")
	return nil
}
