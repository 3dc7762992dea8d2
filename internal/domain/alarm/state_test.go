package alarm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseTimerState verifies case-insensitive parsing and rejection of unknown names.
func TestParseTimerState(t *testing.T) {
	t.Parallel()

	state, err := ParseTimerState(" running ")
	require.NoError(t, err)
	require.Equal(t, StateRunning, state)

	_, err = ParseTimerState("IDLE")
	require.Error(t, err)
}

// TestOutcomeState checks the mapping from countdown outcome to settling state.
func TestOutcomeState(t *testing.T) {
	t.Parallel()

	require.Equal(t, StateAlarm, OutcomeState(true))
	require.Equal(t, StateCancelled, OutcomeState(false))
	require.True(t, StateAlarm.IsSettling())
	require.True(t, StateCancelled.IsSettling())
	require.False(t, StateRunning.IsSettling())
	require.False(t, StatePending.IsSettling())
}

// TestParseEventKind accepts upper-case and dashed names.
func TestParseEventKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseEventKind("FALL_DETECTED")
	require.NoError(t, err)
	require.Equal(t, KindFallDetected, kind)

	kind, err = ParseEventKind("screen-off")
	require.NoError(t, err)
	require.Equal(t, KindScreenOff, kind)
	require.True(t, kind.IsInbound())
	require.False(t, KindProgress.IsInbound())

	_, err = ParseEventKind("explode")
	require.ErrorIs(t, err, ErrUnknownEventKind)
}

// TestProgressFraction checks clamping and nil handling.
func TestProgressFraction(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.0, (*Progress)(nil).Fraction(), 1e-9)
	require.InDelta(t, 0.5, (&Progress{Max: 240, Current: 120}).Fraction(), 1e-9)
	require.InDelta(t, 1.0, (&Progress{Max: 240, Current: 300}).Fraction(), 1e-9)
	require.InDelta(t, 0.0, (&Progress{Max: 240, Current: -1}).Fraction(), 1e-9)
}

// TestSnapshotClone verifies that Clone deep-copies the progress.
func TestSnapshotClone(t *testing.T) {
	t.Parallel()

	s := &Snapshot{
		State:    StateRunning,
		RunID:    "run-1",
		Title:    TitleWaiting,
		Progress: &Progress{Max: 240, Current: 16},
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.Progress, c.Progress)
	require.Nil(t, (&Snapshot{State: StatePending}).Clone().Progress)
}
