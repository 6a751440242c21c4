// Package health provides liveness and readiness checks for the daemon.
package health
