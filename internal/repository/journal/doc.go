// Package journal records finished alarm countdowns.
//
// The SQLiteRepository appends one row per run (outcome, last tick, timing)
// and lists recent runs for the history command. It is an audit trail only:
// the alarm state itself always starts as PENDING.
package journal
