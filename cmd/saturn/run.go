package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"spendwatch-hq/saturn/pkg/config"
	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
	"spendwatch-hq/saturn/pkg/retention"
	"spendwatch-hq/saturn/pkg/state"
	"spendwatch-hq/saturn/pkg/telemetry/health"
)

var runFlags struct {
	dryRun bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the governance daemon",
	Long: `Start the governance daemon.

The daemon ingests session logs on a schedule, evaluates spend against the
configured limits, delivers alerts, and runs retention pruning. With
metrics enabled it also serves /metrics and /healthz.

Examples:
  # Start with default config
  saturn run

  # Start with custom config
  saturn run --config /etc/saturn/config.yaml

  # Validate config without starting
  saturn run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if runFlags.dryRun {
		if _, err := config.LoadConfigWithEnvOverrides(cfgFile); err != nil {
			return err
		}
		fmt.Println("Configuration valid")
		return nil
	}

	a, err := newApp(cfgFile, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default().With("component", "daemon")
	logger.Info("Saturn starting",
		"version", Version,
		"timezone", a.cfg.Engine.Timezone,
		"models", len(a.table.Models()),
	)

	// Price table hot reload.
	if a.cfg.Pricing.Watch {
		watcher, err := pricing.NewWatcher(a.table, pricing.WatcherConfig{
			DebounceInterval: a.cfg.Pricing.DebounceDelay,
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to create price watcher: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("Price watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	// Scheduled ingest and evaluation.
	ingestor := ledger.NewIngestor(a.ledger, a.table, nil)
	scheduler := cron.New()

	if len(a.cfg.Ingest.Globs) > 0 {
		if _, err := scheduler.AddFunc(a.cfg.Ingest.Schedule, func() {
			stats, err := ingestor.IngestGlobs(ctx, a.cfg.Ingest.Globs)
			if err != nil {
				logger.Error("Ingest pass failed", "error", err)
				return
			}
			if stats.Appended > 0 && a.metrics != nil {
				a.metrics.RecordIngested(stats.Appended)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule ingest: %w", err)
		}
	}

	if _, err := scheduler.AddFunc(a.cfg.Engine.Schedule, func() {
		if _, err := a.engine.Evaluate(ctx, time.Now()); err != nil {
			logger.Error("Evaluation pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// Retention pruning on its own schedule.
	pruner := retention.NewPruner(a.cfg.Retention, a.ledger, retention.NewConsolidator(a.cfg.Retention), a.metrics)
	retentionScheduler := retention.NewScheduler(pruner)
	if err := retentionScheduler.Start(ctx); err != nil {
		return err
	}
	defer retentionScheduler.Stop()

	// Observability endpoint.
	if a.cfg.Metrics.Enabled {
		checker := health.New(0)
		checker.RegisterCheck("state", func(ctx context.Context) error {
			_, err := a.states.Load(ctx)
			return err
		})
		checker.RegisterCheck("ledger", func(ctx context.Context) error {
			_, err := a.ledger.Slice(ctx, periodsProbe(time.Now()))
			return err
		})

		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		mux.Handle("/healthz", checker.Handler())

		server := &http.Server{
			Addr:              a.cfg.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Observability endpoint listening", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Observability endpoint failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	// Run an initial pass so alerts are not delayed by the schedule.
	if len(a.cfg.Ingest.Globs) > 0 {
		if _, err := ingestor.IngestGlobs(ctx, a.cfg.Ingest.Globs); err != nil {
			logger.Warn("Initial ingest failed", "error", err)
		}
	}
	if _, err := a.engine.Evaluate(ctx, time.Now()); err != nil {
		var persistErr *state.PersistenceError
		if errors.As(err, &persistErr) {
			return fmt.Errorf("initial evaluation failed: %w", err)
		}
		logger.Error("Initial evaluation failed", "error", err)
	}

	<-ctx.Done()
	logger.Info("Saturn shutting down")
	return nil
}

// periodsProbe is a tiny window used by the ledger health check.
func periodsProbe(now time.Time) periods.Window {
	return periods.Window{Start: now.Add(-time.Minute), End: now}
}
