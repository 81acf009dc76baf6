package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/asystent-radnego/common-go/pkg/config"
	"github.com/asystent-radnego/common-go/pkg/health"
	"github.com/asystent-radnego/common-go/pkg/logger"
	"github.com/asystent-radnego/common-go/pkg/metrics"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/factory"
	"github.com/asystent-radnego/common-go/pkg/providers/registry"
	"github.com/asystent-radnego/common-go/pkg/supabase"
	"github.com/asystent-radnego/common-go/pkg/tasks"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run scheduled provider connection tests",
		Long: `worker consumes provider test tasks from Redis, runs the periodic sweep
and serves Prometheus metrics. Configuration comes from --config and LLM_*
environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadApp("LLM", configPath)
			if err != nil {
				return err
			}

			var log logger.Logger
			if cfg.LogFormat == "json" {
				log = logger.NewJSON(cfg.LogLevel, os.Stdout)
			} else {
				log = logger.New(cfg.LogLevel)
			}

			if err := cfg.ValidateWorker(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "application config file")

	return cmd
}

func run(ctx context.Context, cfg *config.AppConfig, log logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	providerMetrics := metrics.NewProviderMetrics(cfg.Metrics.Namespace, reg)

	store, err := supabase.NewClient(supabase.ClientConfig{
		URL:      cfg.Supabase.URL,
		APIKey:   cfg.Supabase.ServiceKey,
		CacheTTL: cfg.Supabase.CacheTTL,
		Timeout:  cfg.Supabase.Timeout,
		Logger:   log.With("component", "supabase"),
	})
	if err != nil {
		return err
	}

	adapters := factory.NewAdapterFactory(registry.NewDefaultRegistry(
		base.WithLogger(log.With("component", "provider")),
		base.WithRecorder(providerMetrics),
	))
	checker := health.NewChecker(adapters,
		health.WithLogger(log),
		health.WithReporter(providerMetrics),
		health.WithParallelism(cfg.Worker.Parallelism),
	)
	handler := tasks.NewHandler(store, checker, log.With("component", "tasks"))

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqLog := logger.NewAsynqLoggerAdapter(log.With("component", "asynq"))

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      asynqLog,
	})
	mux := asynq.NewServeMux()
	handler.Register(mux)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}
	defer srv.Shutdown()

	if cfg.Worker.SweepCron != "" {
		scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: asynqLog})
		entryID, err := tasks.RegisterSweep(scheduler, cfg.Worker.SweepCron, "")
		if err != nil {
			return fmt.Errorf("failed to schedule provider sweep: %w", err)
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer scheduler.Shutdown()
		log.Info("Provider sweep scheduled", "cron", cfg.Worker.SweepCron, "entry_id", entryID)
	}

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	log.Info("Worker started",
		"redis", cfg.Redis.Addr,
		"concurrency", cfg.Worker.Concurrency,
		"metrics_addr", cfg.Metrics.Addr,
	)

	<-ctx.Done()
	log.Info("Shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return metricsSrv.Shutdown(shutdownCtx)
}
