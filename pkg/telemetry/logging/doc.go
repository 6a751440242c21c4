// Package logging configures the process-wide structured logger.
//
// All components log through log/slog with a "component" attribute, so a
// single handler configured here controls level and format everywhere.
package logging
