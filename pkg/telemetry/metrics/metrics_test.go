package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetSpend(t *testing.T) {
	m := New()

	m.SetSpend("daily", 3.76, 5.00)
	m.SetSpend("weekly", 12.00, 30.00)

	if got := testutil.ToFloat64(m.spend.WithLabelValues("daily")); got != 3.76 {
		t.Errorf("Expected daily spend 3.76, got %v", got)
	}
	if got := testutil.ToFloat64(m.spendLimit.WithLabelValues("weekly")); got != 30.00 {
		t.Errorf("Expected weekly limit 30.00, got %v", got)
	}
}

func TestRecordAlert(t *testing.T) {
	m := New()

	m.RecordAlert("threshold", "warning")
	m.RecordAlert("threshold", "warning")
	m.RecordAlert("milestone", "info")

	if got := testutil.ToFloat64(m.alertsTotal.WithLabelValues("threshold", "warning")); got != 2 {
		t.Errorf("Expected 2 warning alerts, got %v", got)
	}
	if got := testutil.ToFloat64(m.alertsTotal.WithLabelValues("milestone", "info")); got != 1 {
		t.Errorf("Expected 1 milestone alert, got %v", got)
	}
}

func TestRecordEvaluation(t *testing.T) {
	m := New()

	m.RecordEvaluation("ok", 10*time.Millisecond)
	m.RecordEvaluation("error", 5*time.Millisecond)

	if got := testutil.ToFloat64(m.evaluationsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok evaluation, got %v", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.SetCumulativeSpend(21.40)
	m.RecordIngested(7)
	m.RecordRetentionRemoved("sessions", 5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	text := string(body)

	for _, want := range []string{
		"saturn_spend_cumulative_usd 21.4",
		"saturn_ingested_events_total 7",
		`saturn_retention_removed_total{category="sessions"} 5`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected exposition to contain %q", want)
		}
	}
}
