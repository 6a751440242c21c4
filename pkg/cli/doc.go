// Package cli provides shared helpers for the saturn command line: typed
// command errors and output formatting.
package cli
