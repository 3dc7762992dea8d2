package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventKind names a topic on the event bus.
type EventKind string

// Inbound kinds are produced by upstream sources (detector, user, platform).
const (
	// KindFallDetected is posted by the fall detector.
	KindFallDetected EventKind = "fall_detected"
	// KindStopAlarm is posted when the user asks to stop the countdown.
	KindStopAlarm EventKind = "stop_alarm"
	// KindAlarmStopped is posted when the alarm was stopped elsewhere.
	KindAlarmStopped EventKind = "alarm_stopped"
	// KindScreenOff is posted by the platform when the screen turns off.
	KindScreenOff EventKind = "screen_off"
)

// Outbound kinds are published by this service.
const (
	// KindStartAlarm announces that a countdown started.
	KindStartAlarm EventKind = "start_alarm"
	// KindProgress carries coarse countdown progress.
	KindProgress EventKind = "progress"
	// KindResetSensorListeners asks sensor consumers to re-register.
	KindResetSensorListeners EventKind = "reset_sensor_listeners"
	// KindResume is published once when the service comes up.
	KindResume EventKind = "resume"
	// KindStateChanged is published on every timer state transition.
	KindStateChanged EventKind = "state_changed"
	// KindNotification mirrors what the notification presenter shows.
	KindNotification EventKind = "notification"
)

// ErrUnknownEventKind is returned when a kind name is not recognised.
var ErrUnknownEventKind = errors.New("unknown event kind")

// InboundKinds returns the kinds accepted from outside the service.
func InboundKinds() []EventKind {
	return []EventKind{KindFallDetected, KindStopAlarm, KindAlarmStopped, KindScreenOff}
}

// OutboundKinds returns the kinds this service publishes.
func OutboundKinds() []EventKind {
	return []EventKind{
		KindStartAlarm,
		KindProgress,
		KindResetSensorListeners,
		KindResume,
		KindStateChanged,
		KindNotification,
	}
}

// IsInbound reports whether k may be posted by an external source.
func (k EventKind) IsInbound() bool {
	for _, kind := range InboundKinds() {
		if kind == k {
			return true
		}
	}

	return false
}

// ParseEventKind converts a name such as "FALL_DETECTED" or "fall-detected" to an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")

	for _, kind := range append(InboundKinds(), OutboundKinds()...) {
		if string(kind) == name {
			return kind, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// Event is the single message type carried by the bus.
// Fields that do not apply to a kind are left zero.
type Event struct {
	// Kind is the bus topic.
	Kind EventKind
	// At is when the event was produced.
	At time.Time
	// RunID identifies the countdown run the event belongs to.
	RunID string
	// State is the new timer state for KindStateChanged.
	State TimerState
	// Previous is the old timer state for KindStateChanged.
	Previous TimerState
	// Progress is set for KindProgress and KindNotification.
	Progress *Progress
	// Title is the notification text for KindNotification.
	Title string
}

// NewEvent returns an event of the given kind stamped with the current time.
func NewEvent(kind EventKind) Event {
	return Event{
		Kind: kind,
		At:   time.Now(),
	}
}

// ProgressEvent returns a KindProgress event carrying (maxTicks, tick).
func ProgressEvent(runID string, maxTicks, tick int) Event {
	event := NewEvent(KindProgress)
	event.RunID = runID
	event.Progress = &Progress{
		Max:     maxTicks,
		Current: tick,
	}

	return event
}
