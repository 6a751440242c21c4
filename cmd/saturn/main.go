// Saturn is a usage governance engine for AI token spend.
//
// It ingests per-session token usage logs, converts tokens to cost through
// a per-model price table, enforces daily/weekly/monthly spend limits with
// deduplicated warning and critical alerts, tracks cumulative spend
// milestones, and prunes session artifacts on a retention schedule.
//
// Usage:
//
//	# Start the daemon with default configuration
//	saturn run
//
//	# Start with a custom configuration file
//	saturn run --config /etc/saturn/config.yaml
//
//	# Run one evaluation pass and exit
//	saturn evaluate
//
//	# Apply a reply to a critical alert
//	saturn respond "+5"
//
//	# Print the usage dashboard
//	saturn dashboard
//
//	# Run one retention pass
//	saturn retention
//
//	# Show version information
//	saturn version
package main

func main() {
	Execute()
}
