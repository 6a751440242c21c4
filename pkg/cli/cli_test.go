package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("limits.daily_limit", "must not be negative")
	if !strings.Contains(err.Error(), "limits.daily_limit") {
		t.Errorf("Expected field in message, got %q", err.Error())
	}

	bare := NewConfigError("", "failed to load config")
	if strings.Contains(bare.Error(), "in :") {
		t.Errorf("Expected no field placeholder, got %q", bare.Error())
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewCommandError("evaluate", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatJSON)
	if err != nil {
		t.Fatalf("NewFormatter failed: %v", err)
	}

	if err := f.FormatTo(&buf, map[string]float64{"daily": 3.76}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}

	var got map[string]float64
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Expected valid JSON, got %q: %v", buf.String(), err)
	}
	if got["daily"] != 3.76 {
		t.Errorf("Expected daily 3.76, got %v", got["daily"])
	}
}

func TestTextFormatter_Default(t *testing.T) {
	f, err := NewFormatter("")
	if err != nil {
		t.Fatalf("NewFormatter failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.FormatTo(&buf, "hello"); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestNewFormatter_Unknown(t *testing.T) {
	if _, err := NewFormatter("xml"); err == nil {
		t.Fatal("Expected error for unknown format")
	}
}
