// Package engine orchestrates evaluation passes over the usage ledger.
//
// # Evaluation Pass
//
// A pass loads the persisted state, recomputes the spend aggregate for each
// period kind from the ledger, runs the threshold monitor and the milestone
// tracker, and commits the updated state before any notification is sent.
// Committing first is the dedup guarantee: a crash between commit and send
// costs at most one notification, while the reverse order would replay
// alerts on every restart.
//
// A state version conflict means another pass or a limit update won the
// race; the pass retries from a fresh load. Any other persistence failure
// aborts the pass with no alerts emitted.
//
// # Limit Responses
//
// ApplyResponse feeds a user's reply to a critical alert ("15", "+5",
// "keep", "disable") through the limit handler and commits the rewritten
// config under the same compare-and-set discipline.
package engine
