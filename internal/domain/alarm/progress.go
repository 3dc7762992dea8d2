package alarm

import "time"

// Notification titles shown by the presenter for each phase.
const (
	TitleDetecting = "Detecting falls"
	TitleWaiting   = "Fall detected! Sending alarm unless stopped"
	TitleSent      = "Alarm sent"
	TitleCancelled = "Alarm cancelled"
)

// Progress is a countdown position in ticks.
type Progress struct {
	// Max is the total number of ticks of the countdown.
	Max int
	// Current is the last tick reached.
	Current int
}

// Clone returns a copy of the progress, nil-safe.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}

	cloned := *p

	return &cloned
}

// Fraction returns Current/Max clamped to [0, 1].
func (p *Progress) Fraction() float64 {
	if p == nil || p.Max <= 0 || p.Current < 0 {
		return 0
	}

	if p.Current >= p.Max {
		return 1
	}

	return float64(p.Current) / float64(p.Max)
}

// Run records one finished countdown.
type Run struct {
	// ID is the countdown task identifier.
	ID string
	// StartedAt is when the fall was accepted.
	StartedAt time.Time
	// FinishedAt is when the terminal outcome was observed.
	FinishedAt time.Time
	// Outcome is StateAlarm or StateCancelled.
	Outcome TimerState
	// LastTick is the last tick reached, -1 if none.
	LastTick int
	// MaxTicks is the countdown length in ticks.
	MaxTicks int
}

// Duration returns how long the countdown lasted.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Snapshot is a point-in-time view of the alarm.
type Snapshot struct {
	// State is the current timer state.
	State TimerState
	// RunID is the active or last run, empty before the first fall.
	RunID string
	// Title is the last rendered notification text.
	Title string
	// Progress is the position of the active run, nil when idle.
	Progress *Progress
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		State:    s.State,
		RunID:    s.RunID,
		Title:    s.Title,
		Progress: s.Progress.Clone(),
	}
}
