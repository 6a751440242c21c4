// Package metrics defines the Prometheus metrics exposed by the engine.
//
// Metrics are registered against a private registry so tests can create
// isolated instances; the daemon exposes the registry on /metrics via the
// standard promhttp handler.
package metrics
