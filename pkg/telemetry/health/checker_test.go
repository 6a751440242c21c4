package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestCheck_AllHealthy(t *testing.T) {
	c := New(0)
	c.RegisterCheck("state", func(ctx context.Context) error { return nil })
	c.RegisterCheck("ledger", func(ctx context.Context) error { return nil })

	status := c.Check(context.Background())
	if status.Status != "ok" {
		t.Errorf("Expected ok, got %s", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("Expected 2 check results, got %d", len(status.Checks))
	}
}

func TestCheck_OneUnhealthy(t *testing.T) {
	c := New(0)
	c.RegisterCheck("state", func(ctx context.Context) error { return nil })
	c.RegisterCheck("ledger", func(ctx context.Context) error { return errors.New("database locked") })

	status := c.Check(context.Background())
	if status.Status != "unhealthy" {
		t.Errorf("Expected unhealthy, got %s", status.Status)
	}
	if status.Checks["ledger"].Message != "database locked" {
		t.Errorf("Expected failure message, got %q", status.Checks["ledger"].Message)
	}
	if status.Checks["state"].Status != "ok" {
		t.Errorf("Expected state to stay ok, got %+v", status.Checks["state"])
	}
}

func TestHandler_StatusCodes(t *testing.T) {
	c := New(0)
	c.RegisterCheck("state", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("Expected 200 for healthy, got %d", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("Expected ok body, got %+v", status)
	}

	c.RegisterCheck("ledger", func(ctx context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 503 {
		t.Errorf("Expected 503 for unhealthy, got %d", rec.Code)
	}
}
