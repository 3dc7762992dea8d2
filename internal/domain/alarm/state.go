package alarm

import (
	"fmt"
	"strings"
)

// TimerState is the lifecycle state of the single alarm countdown.
type TimerState string

const (
	// StatePending means no countdown is active and falls are being detected.
	StatePending TimerState = "PENDING"
	// StateRunning means a countdown is active.
	StateRunning TimerState = "RUNNING"
	// StateCancelled means the countdown was stopped before completion and is settling.
	StateCancelled TimerState = "CANCELLED"
	// StateAlarm means the countdown completed and the alarm fired; it is settling.
	StateAlarm TimerState = "ALARM"
)

// String implements fmt.Stringer.
func (s TimerState) String() string {
	return string(s)
}

// IsSettling reports whether the state is a terminal outcome waiting for the settle timer.
func (s TimerState) IsSettling() bool {
	return s == StateCancelled || s == StateAlarm
}

// Valid reports whether s is one of the known states.
func (s TimerState) Valid() bool {
	switch s {
	case StatePending, StateRunning, StateCancelled, StateAlarm:
		return true
	default:
		return false
	}
}

// ParseTimerState converts a case-insensitive name to a TimerState.
func ParseTimerState(s string) (TimerState, error) {
	state := TimerState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.Valid() {
		return "", fmt.Errorf("unknown timer state %q", s)
	}

	return state, nil
}

// OutcomeState maps a countdown outcome to the state it settles in.
func OutcomeState(completed bool) TimerState {
	if completed {
		return StateAlarm
	}

	return StateCancelled
}
