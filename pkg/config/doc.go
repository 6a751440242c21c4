// Package config defines the daemon configuration, its defaults, YAML
// loading, environment overrides and validation.
//
// # Loading
//
// Configuration is loaded from a YAML file, defaults are applied to unset
// fields, then SATURN_* environment variables override individual values
// (e.g. SATURN_LIMITS_DAILY_LIMIT). The final configuration is validated
// as a whole; all field errors are collected and reported together.
package config
