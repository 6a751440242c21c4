// Package alerting decides when spend alerts fire.
//
// # Threshold Alerts
//
// Every period kind has a warning and a critical threshold, expressed as
// fractions of the period's spend limit. The ThresholdMonitor compares the
// current period aggregate against the thresholds and the level already sent
// for that period, and emits at most one alert per evaluation: the highest
// level newly reached. Within a period the sent level only ratchets upward;
// it resets when the period key rolls over.
//
// Disabling critical alerts caps the reachable level at warning. It does not
// clear a critical level already recorded for the period, so re-enabling
// does not re-fire an alert the user already saw.
//
// # Milestone Alerts
//
// Independently of period limits, the MilestoneTracker fires an alert each
// time cumulative all-time spend crosses a fixed dollar increment ($5 by
// default). A single evaluation that jumps several increments produces one
// alert per crossed milestone. The last announced milestone is monotone and
// never moves backward.
package alerting
