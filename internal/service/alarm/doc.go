// Package alarm implements the single-alarm state machine.
//
// Machine owns the process-wide TimerState. Inbound bus events (fall
// detected, stop) and countdown callbacks are serialized through one mutex
// and drive a stateless state machine:
//
//	PENDING -> RUNNING -> {CANCELLED | ALARM} -> PENDING
//
// The return to PENDING happens when a settle timer fires after the terminal
// outcome; a stale settle that finds a new countdown running does nothing.
package alarm
