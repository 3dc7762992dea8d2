package countdown

import (
	"errors"
	"time"
)

const (
	// SecondsPerAlarm is the nominal countdown length.
	SecondsPerAlarm = 60
	// ResolutionMultiplier subdivides one second into ticks.
	ResolutionMultiplier = 4
	// MaxTicks is the last tick index of a countdown.
	MaxTicks = SecondsPerAlarm * ResolutionMultiplier
	// TickInterval is the wall-clock length of one tick.
	TickInterval = time.Second / ResolutionMultiplier
	// UpdateFrequency is how many ticks pass between published progress events.
	UpdateFrequency = ResolutionMultiplier * 4
)

// Settings describes one countdown.
type Settings struct {
	// TotalTicks is the last tick index; ticks 0..TotalTicks are emitted.
	TotalTicks int
	// TickInterval is the wait before each tick.
	TickInterval time.Duration
	// UpdateFrequency publishes progress on ticks that are multiples of it.
	UpdateFrequency int
}

var (
	// errInvalidTotalTicks is returned for a negative tick count.
	errInvalidTotalTicks = errors.New("total ticks must not be negative")
	// errInvalidTickInterval is returned for a non-positive interval.
	errInvalidTickInterval = errors.New("tick interval must be positive")
	// errInvalidUpdateFrequency is returned for a non-positive frequency.
	errInvalidUpdateFrequency = errors.New("update frequency must be positive")
)

// DefaultSettings returns the fixed alarm countdown: 240 ticks of 250ms, progress every 16th tick.
func DefaultSettings() Settings {
	return Settings{
		TotalTicks:      MaxTicks,
		TickInterval:    TickInterval,
		UpdateFrequency: UpdateFrequency,
	}
}

// Validate checks that the settings describe a runnable countdown.
func (s Settings) Validate() error {
	switch {
	case s.TotalTicks < 0:
		return errInvalidTotalTicks
	case s.TickInterval <= 0:
		return errInvalidTickInterval
	case s.UpdateFrequency <= 0:
		return errInvalidUpdateFrequency
	default:
		return nil
	}
}

// Duration returns the wall-clock time of an uninterrupted countdown.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.TotalTicks+1) * s.TickInterval
}
