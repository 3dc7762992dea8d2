// Package alarm contains core domain types for the fall alarm countdown.
//
// It defines TimerState (the lifecycle of the single alarm), the event kinds
// exchanged over the event bus, progress values and finished run records.
package alarm
