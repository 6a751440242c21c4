package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"spendwatch-hq/saturn/pkg/aggregate"
	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/notify"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
	"spendwatch-hq/saturn/pkg/state"
)

// dollarModel prices at exactly $1 per 1k input tokens, so tests can spend
// exact dollar amounts by appending tokens.
const dollarModel = "test/dollar"

type capture struct {
	sent []notify.Message
	err  error
}

func (c *capture) Send(ctx context.Context, msg notify.Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

type fixture struct {
	store    *ledger.MemoryStore
	states   state.Store
	notifier *capture
	engine   *Engine
	eventSeq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	table := pricing.NewTable(
		map[string]pricing.Entry{
			dollarModel: {InputPricePer1K: 1000.0, OutputPricePer1K: 1000.0},
		},
		nil,
	)

	f := &fixture{
		store:    ledger.NewMemoryStore(),
		states:   state.NewMemoryStore(),
		notifier: &capture{},
	}
	f.engine = New(Config{}, f.states, aggregate.NewAggregator(f.store, table, time.UTC), f.notifier, nil)
	return f
}

// spend appends an event costing exactly the given dollar amount at t.
func (f *fixture) spend(t *testing.T, at time.Time, dollars float64) {
	t.Helper()
	f.eventSeq++
	err := f.store.Append(context.Background(), ledger.UsageEvent{
		ID:          fmt.Sprintf("spend-%d", f.eventSeq),
		Timestamp:   at,
		Model:       dollarModel,
		InputTokens: uint64(dollars), // $1000/1k tokens: 1 token = $1
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
}

func TestEvaluate_WarningThenCriticalOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	// 74% of the $5 daily default: nothing fires. (Tokens are whole dollars
	// here, so scale spend through multiple small events.)
	f.spend(t, now, 3)
	result, err := f.engine.Evaluate(ctx, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.ThresholdAlerts) != 0 {
		t.Fatalf("Expected no alerts at 60%%, got %+v", result.ThresholdAlerts)
	}

	// $4 is 80%: warning fires exactly once.
	f.spend(t, now.Add(time.Minute), 1)
	result, err = f.engine.Evaluate(ctx, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.ThresholdAlerts) != 1 || result.ThresholdAlerts[0].Level != alerting.LevelWarning {
		t.Fatalf("Expected one warning, got %+v", result.ThresholdAlerts)
	}

	// Re-running without new spend must not re-alert.
	result, _ = f.engine.Evaluate(ctx, now)
	if len(result.ThresholdAlerts) != 0 {
		t.Fatalf("Expected deduplicated warning, got %+v", result.ThresholdAlerts)
	}

	// $5 is 100%: critical fires.
	f.spend(t, now.Add(2*time.Minute), 1)
	result, _ = f.engine.Evaluate(ctx, now)

	var sawCritical bool
	for _, alert := range result.ThresholdAlerts {
		if alert.Kind == periods.Daily && alert.Level == alerting.LevelCritical {
			sawCritical = true
		}
	}
	if !sawCritical {
		t.Fatalf("Expected daily critical, got %+v", result.ThresholdAlerts)
	}
}

func TestEvaluate_MilestoneAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	// $6 crosses the $5 milestone (and blows the daily limit, which is not
	// under test here).
	f.spend(t, now, 6)
	result, err := f.engine.Evaluate(ctx, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.MilestoneAlerts) != 1 || result.MilestoneAlerts[0].Milestone != 5 {
		t.Fatalf("Expected $5 milestone, got %+v", result.MilestoneAlerts)
	}

	// Re-running must not repeat the milestone.
	result, _ = f.engine.Evaluate(ctx, now)
	if len(result.MilestoneAlerts) != 0 {
		t.Fatalf("Expected no repeat milestone, got %+v", result.MilestoneAlerts)
	}

	// Another $10 the next day crosses $10 and $15 in one pass.
	f.spend(t, now.AddDate(0, 0, 1), 10)
	result, _ = f.engine.Evaluate(ctx, now.AddDate(0, 0, 1))
	if len(result.MilestoneAlerts) != 2 {
		t.Fatalf("Expected two milestones, got %+v", result.MilestoneAlerts)
	}
}

func TestEvaluate_StatePersistedBeforeNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.err = notify.NewNotificationError("capture", errors.New("delivery down"))
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	f.spend(t, now, 4)
	result, err := f.engine.Evaluate(ctx, now)
	if err != nil {
		t.Fatalf("Expected delivery failure to be non-fatal, got %v", err)
	}
	if len(result.ThresholdAlerts) != 1 {
		t.Fatalf("Expected one alert, got %+v", result.ThresholdAlerts)
	}

	// The failed delivery was already committed: no replay on the next pass.
	result, _ = f.engine.Evaluate(ctx, now)
	if len(result.ThresholdAlerts) != 0 {
		t.Fatalf("Expected no replay after failed delivery, got %+v", result.ThresholdAlerts)
	}
}

type failingStore struct {
	state.Store
}

func (s *failingStore) Load(ctx context.Context) (state.Snapshot, error) {
	return state.Snapshot{}, state.NewPersistenceError("test", "load", errors.New("disk gone"))
}

func TestEvaluate_PersistenceFailureAbortsWithoutAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.states = &failingStore{}
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	f.spend(t, now, 5)
	_, err := f.engine.Evaluate(ctx, now)
	if err == nil {
		t.Fatal("Expected persistence failure to abort the pass")
	}
	var persistErr *state.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("Expected *state.PersistenceError, got %T", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("Expected no notifications on aborted pass, got %d", len(f.notifier.sent))
	}
}

func TestEvaluate_NotifiesWithResponseInstructions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	f.spend(t, now, 5)
	if _, err := f.engine.Evaluate(ctx, now); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	var critical *notify.Message
	for i := range f.notifier.sent {
		if f.notifier.sent[i].Level == alerting.LevelCritical {
			critical = &f.notifier.sent[i]
			break
		}
	}
	if critical == nil {
		t.Fatalf("Expected a critical notification, sent: %+v", f.notifier.sent)
	}
	for _, want := range []string{"keep", "disable", "+5"} {
		if !strings.Contains(critical.Body, want) {
			t.Errorf("Expected critical body to mention %q, got %q", want, critical.Body)
		}
	}
}

func TestApplyResponse_RelativeIncrease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cfg, err := f.engine.ApplyResponse(ctx, "+5")
	if err != nil {
		t.Fatalf("ApplyResponse failed: %v", err)
	}
	if cfg.DailyLimit != 10 || cfg.WeeklyLimit != 60 || cfg.MonthlyLimit != 200 {
		t.Errorf("Expected {10, 60, 200}, got %+v", cfg)
	}

	// The update is durable: a fresh load sees it.
	snap, _ := f.states.Load(ctx)
	if snap.Limits.DailyLimit != 10 {
		t.Errorf("Expected persisted daily limit 10, got %v", snap.Limits.DailyLimit)
	}
}

func TestApplyResponse_InvalidLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.ApplyResponse(ctx, "banana")
	var invalidErr *limits.InvalidResponseError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("Expected *limits.InvalidResponseError, got %v", err)
	}

	snap, _ := f.states.Load(ctx)
	if snap.Version != 0 {
		t.Errorf("Expected no save on invalid response, version %d", snap.Version)
	}
	if snap.Limits.DailyLimit != limits.DefaultDailyLimit {
		t.Errorf("Expected default limits intact, got %+v", snap.Limits)
	}
}

func TestApplyResponse_DisableSuppressesCritical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	if _, err := f.engine.ApplyResponse(ctx, "disable"); err != nil {
		t.Fatalf("ApplyResponse failed: %v", err)
	}

	// 100% of the daily limit: capped at warning while disabled.
	f.spend(t, now, 5)
	result, err := f.engine.Evaluate(ctx, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, alert := range result.ThresholdAlerts {
		if alert.Level == alerting.LevelCritical {
			t.Errorf("Expected critical suppressed, got %+v", alert)
		}
	}
}

func TestEvaluate_PeriodRollover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day1 := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC) // Monday
	day2 := day1.AddDate(0, 0, 1)

	f.spend(t, day1, 4)
	result, _ := f.engine.Evaluate(ctx, day1)
	if len(result.ThresholdAlerts) != 1 {
		t.Fatalf("Expected daily warning on day 1, got %+v", result.ThresholdAlerts)
	}

	// Next day: daily resets, yesterday's spend no longer counts toward it.
	result, err := f.engine.Evaluate(ctx, day2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Spend[periods.Daily] != 0 {
		t.Errorf("Expected daily spend reset, got %v", result.Spend[periods.Daily])
	}
	if result.Spend[periods.Weekly] != 4 {
		t.Errorf("Expected weekly spend carried, got %v", result.Spend[periods.Weekly])
	}
	if len(result.ThresholdAlerts) != 0 {
		t.Errorf("Expected no alerts on fresh day, got %+v", result.ThresholdAlerts)
	}

	// A warning on the new day fires again.
	f.spend(t, day2, 4)
	result, _ = f.engine.Evaluate(ctx, day2)
	var daily int
	for _, alert := range result.ThresholdAlerts {
		if alert.Kind == periods.Daily {
			daily++
		}
	}
	if daily != 1 {
		t.Errorf("Expected one fresh daily warning, got %+v", result.ThresholdAlerts)
	}
}
