package screen

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
)

// newWatcher starts a watcher and counts reset events.
func newWatcher(t *testing.T) (*eventbus.Bus, *Watcher, *atomic.Int32) {
	t.Helper()

	bus := eventbus.New()
	resets := new(atomic.Int32)

	_, err := bus.Subscribe(domain.KindResetSensorListeners, func(domain.Event) {
		resets.Add(1)
	})
	require.NoError(t, err)

	watcher := New(context.Background(), bus)
	require.NoError(t, watcher.Start())

	return bus, watcher, resets
}

// TestWatcher_DelaysReset publishes the reset exactly after the delay.
func TestWatcher_DelaysReset(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		bus, watcher, resets := newWatcher(t)
		defer watcher.Close()

		bus.Publish(domain.NewEvent(domain.KindScreenOff))
		synctest.Wait()
		require.Equal(t, 1, watcher.Pending())

		time.Sleep(ResetDelay - time.Millisecond)
		synctest.Wait()
		require.Zero(t, resets.Load())

		time.Sleep(time.Millisecond)
		synctest.Wait()
		require.EqualValues(t, 1, resets.Load())
		require.Zero(t, watcher.Pending())
	})
}

// TestWatcher_EverySignalResets keeps one reset per signal.
func TestWatcher_EverySignalResets(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		bus, watcher, resets := newWatcher(t)
		defer watcher.Close()

		bus.Publish(domain.NewEvent(domain.KindScreenOff))
		time.Sleep(100 * time.Millisecond)
		bus.Publish(domain.NewEvent(domain.KindScreenOff))
		synctest.Wait()

		time.Sleep(ResetDelay)
		synctest.Wait()
		require.EqualValues(t, 2, resets.Load())
	})
}

// TestWatcher_CloseDropsPending drops a reset that has not fired yet.
func TestWatcher_CloseDropsPending(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		bus, watcher, resets := newWatcher(t)

		bus.Publish(domain.NewEvent(domain.KindScreenOff))
		synctest.Wait()

		watcher.Close()
		watcher.Close()

		time.Sleep(2 * ResetDelay)
		synctest.Wait()
		require.Zero(t, resets.Load())
		require.False(t, bus.HasSubscribers(domain.KindScreenOff))
		require.ErrorIs(t, watcher.Start(), errAlreadyStarted)
	})
}
