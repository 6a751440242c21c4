// Package pricing provides the model price table used for cost computation.
//
// # Price Table
//
// Prices are expressed per 1000 tokens, split into input and output rates,
// keyed by canonical model identifier. The table is loaded from a YAML file
// at startup and is only re-read on explicit instruction (Reload) or, when
// watch mode is enabled, on a debounced filesystem change event.
//
// # Unknown Models
//
// Looking up a model with no price entry fails with *UnknownModelError.
// Callers must not substitute a default price: a silently misclassified
// model would corrupt every downstream limit comparison.
//
// # Aliases
//
// Session logs record models under several spellings. The table carries an
// alias map so all spellings resolve to one canonical entry.
package pricing
