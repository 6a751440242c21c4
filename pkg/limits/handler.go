package limits

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidResponseError indicates a limit-update response that matched none
// of the recognized forms. The config must be left unmodified.
type InvalidResponseError struct {
	Response string
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid limit response %q: expected a number, +number, \"keep\" or \"disable\"", e.Response)
}

// NewInvalidResponseError creates a new InvalidResponseError.
func NewInvalidResponseError(response string) *InvalidResponseError {
	return &InvalidResponseError{Response: response}
}

// ResponseKind classifies a parsed limit-update response.
type ResponseKind string

const (
	// ResponseAbsolute sets the daily limit to a new value.
	ResponseAbsolute ResponseKind = "absolute"

	// ResponseRelative adds an amount to the daily limit.
	ResponseRelative ResponseKind = "relative"

	// ResponseKeep leaves the config untouched.
	ResponseKeep ResponseKind = "keep"

	// ResponseDisable turns off critical alerts, limits untouched.
	ResponseDisable ResponseKind = "disable"
)

// Response is a parsed limit-update response.
type Response struct {
	Kind ResponseKind

	// Amount is the dollar value for absolute and relative responses.
	Amount float64
}

// Handler interprets user responses and rewrites the limit config.
// The weekly and monthly ratios are fixed at construction, derived from the
// configured default limits.
type Handler struct {
	weeklyRatio  float64
	monthlyRatio float64
}

// NewHandler creates a handler with rescale ratios derived from defaults.
// With defaults of a daily limit, weekly at 6x and monthly at 20x, an update
// to the daily limit overwrites weekly and monthly at those multiples.
func NewHandler(defaults Config) *Handler {
	weeklyRatio := DefaultWeeklyLimit / DefaultDailyLimit
	monthlyRatio := DefaultMonthlyLimit / DefaultDailyLimit
	if defaults.DailyLimit > 0 {
		if defaults.WeeklyLimit > 0 {
			weeklyRatio = defaults.WeeklyLimit / defaults.DailyLimit
		}
		if defaults.MonthlyLimit > 0 {
			monthlyRatio = defaults.MonthlyLimit / defaults.DailyLimit
		}
	}
	return &Handler{weeklyRatio: weeklyRatio, monthlyRatio: monthlyRatio}
}

// Parse classifies a raw response string. Returns *InvalidResponseError for
// anything that is neither numeric (with optional leading +) nor one of the
// recognized keywords.
func (h *Handler) Parse(text string) (Response, error) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" {
		return Response{}, NewInvalidResponseError(text)
	}

	switch trimmed {
	case "keep", "no", "skip":
		return Response{Kind: ResponseKeep}, nil
	case "disable":
		return Response{Kind: ResponseDisable}, nil
	}

	if strings.HasPrefix(trimmed, "+") {
		amount, err := strconv.ParseFloat(strings.TrimSpace(trimmed[1:]), 64)
		if err != nil || amount <= 0 {
			return Response{}, NewInvalidResponseError(text)
		}
		return Response{Kind: ResponseRelative, Amount: amount}, nil
	}

	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || amount <= 0 {
		return Response{}, NewInvalidResponseError(text)
	}
	return Response{Kind: ResponseAbsolute, Amount: amount}, nil
}

// Apply returns the config after applying a parsed response.
//
// Absolute and relative responses recompute the daily limit, then overwrite
// the weekly and monthly limits at the handler's ratios. The overwrite is a
// full rewrite of the dependent limits, not an incremental delta, so
// applying the same absolute response twice yields the same config as once.
//
// Apply never clears alert state: if the limit was raised, the next
// evaluation cycle naturally produces a lower fraction, and the monitor's
// period-scoped reset still governs re-alerting.
func (h *Handler) Apply(cfg Config, resp Response) Config {
	switch resp.Kind {
	case ResponseKeep:
		return cfg
	case ResponseDisable:
		cfg.CriticalAlertsEnabled = false
		return cfg
	case ResponseAbsolute:
		cfg.DailyLimit = resp.Amount
	case ResponseRelative:
		cfg.DailyLimit += resp.Amount
	}

	cfg.WeeklyLimit = cfg.DailyLimit * h.weeklyRatio
	cfg.MonthlyLimit = cfg.DailyLimit * h.monthlyRatio
	return cfg
}

// HandleText parses and applies a raw response in one step. On parse
// failure the original config is returned unmodified alongside the error.
func (h *Handler) HandleText(cfg Config, text string) (Config, Response, error) {
	resp, err := h.Parse(text)
	if err != nil {
		return cfg, Response{}, err
	}
	return h.Apply(cfg, resp), resp, nil
}
