package main

import (
	"context"
	"fmt"
	"time"

	"spendwatch-hq/saturn/pkg/aggregate"
	"spendwatch-hq/saturn/pkg/cli"
	"spendwatch-hq/saturn/pkg/config"
	"spendwatch-hq/saturn/pkg/engine"
	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/notify"
	"spendwatch-hq/saturn/pkg/pricing"
	"spendwatch-hq/saturn/pkg/state"
	"spendwatch-hq/saturn/pkg/telemetry/logging"
	"spendwatch-hq/saturn/pkg/telemetry/metrics"
)

// app wires the shared components every command needs: config, logger,
// price table, stores and the engine.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	table    *pricing.Table
	ledger   ledger.Store
	states   state.Store
	notifier notify.Notifier
	engine   *engine.Engine
	metrics  *metrics.Metrics
}

// newApp builds the application from the config file. withMetrics controls
// whether a metrics registry is created (the daemon wants one; one-shot
// commands do not).
func newApp(cfgPath string, withMetrics bool) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgPath)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if _, err := logging.Setup(cfg.Logging); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Engine.Timezone, err)
	}

	table, err := pricing.LoadFile(cfg.Pricing.TablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load price table: %w", err)
	}

	ledgerStore, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}

	stateStore, err := openState(cfg)
	if err != nil {
		ledgerStore.Close()
		return nil, err
	}

	if err := seedState(stateStore, cfg); err != nil {
		ledgerStore.Close()
		stateStore.Close()
		return nil, err
	}

	var m *metrics.Metrics
	if withMetrics {
		m = metrics.New()
	}

	notifier := buildNotifier(cfg)
	aggregator := aggregate.NewAggregator(ledgerStore, table, loc)

	eng := engine.New(engine.Config{
		Location:           loc,
		MilestoneIncrement: cfg.Engine.MilestoneIncrement,
	}, stateStore, aggregator, notifier, m)

	return &app{
		cfg:      cfg,
		loc:      loc,
		table:    table,
		ledger:   ledgerStore,
		states:   stateStore,
		notifier: notifier,
		engine:   eng,
		metrics:  m,
	}, nil
}

// Close releases the app's stores.
func (a *app) Close() {
	a.ledger.Close()
	a.states.Close()
}

func openLedger(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case "memory":
		return ledger.NewMemoryStore(), nil
	default:
		return ledger.NewSQLiteStoreWithConfig(ledger.SQLiteStoreConfig{
			DBPath:      cfg.Ledger.DBPath,
			BusyTimeout: cfg.Ledger.BusyTimeout,
		})
	}
}

func openState(cfg *config.Config) (state.Store, error) {
	switch cfg.State.Backend {
	case "memory":
		return state.NewMemoryStore(), nil
	default:
		return state.NewSQLiteStore(&state.SQLiteConfig{
			Path:        cfg.State.DBPath,
			BusyTimeout: cfg.State.BusyTimeout,
		})
	}
}

// seedState writes the config's limit section into a store that has never
// been saved to. A store with history keeps its persisted limits.
func seedState(store state.Store, cfg *config.Config) error {
	ctx := context.Background()
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if snap.Version != 0 {
		return nil
	}

	snap.Limits = cfg.Limits
	return store.Save(ctx, snap)
}

// buildNotifier assembles the configured senders; with nothing configured
// alerts go to the log.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Notify.Command.Command != "" {
		if n, err := notify.NewCommandNotifier(cfg.Notify.Command); err == nil {
			notifiers = append(notifiers, n)
		}
	}
	if cfg.Notify.Webhook.URL != "" {
		if n, err := notify.NewWebhookNotifier(cfg.Notify.Webhook); err == nil {
			notifiers = append(notifiers, n)
		}
	}

	switch len(notifiers) {
	case 0:
		return notify.NewLogNotifier()
	case 1:
		return notifiers[0]
	default:
		return notify.NewMultiNotifier(notifiers...)
	}
}
