// Package telemetry groups the observability subpackages: structured
// logging, Prometheus metrics and health checks.
package telemetry
