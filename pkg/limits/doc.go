// Package limits defines the spend limit configuration and the handler that
// rewrites it from user responses to critical alerts.
//
// # Limit Config
//
// Limits are configured per period kind (daily, weekly, monthly) together
// with the warning and critical fractions. The weekly and monthly limits are
// kept proportional to the daily limit: whenever the handler changes the
// daily limit it overwrites the dependent limits using the ratios derived
// from the configured defaults, so repeated application of the same response
// is idempotent.
//
// # User Responses
//
// When a critical alert fires, the user answers with one of four forms:
//
//	"15"       set the daily limit to $15.00
//	"+5"       increase the daily limit by $5.00
//	"keep"     keep the current limit ("no" and "skip" are synonyms)
//	"disable"  turn off critical alerts, limits untouched
//
// Anything else fails with *InvalidResponseError and the config is left
// unmodified; the original alert is still considered outstanding and the
// caller re-prompts.
package limits
