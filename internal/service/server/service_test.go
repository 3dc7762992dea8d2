package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/countdown"
)

var errTestAcquire = errors.New("test acquire error")

// fakeWakeLock counts acquire and release calls.
type fakeWakeLock struct {
	mu         sync.Mutex
	acquireErr error
	acquired   int
	released   int
}

// Acquire records the call.
func (f *fakeWakeLock) Acquire(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acquired++

	return f.acquireErr
}

// Release records the call.
func (f *fakeWakeLock) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.released++

	return nil
}

// memoryJournal keeps recorded runs in memory.
type memoryJournal struct {
	mu   sync.Mutex
	runs []*domain.Run
}

// Record stores the run.
func (m *memoryJournal) Record(_ context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)

	return nil
}

// drain collects everything buffered on events.
func drain(events <-chan domain.Event) []domain.Event {
	var result []domain.Event

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return result
			}

			result = append(result, event)
		default:
			return result
		}
	}
}

// kindsOf returns the kinds of events.
func kindsOf(events []domain.Event) []domain.EventKind {
	var result []domain.EventKind
	for _, event := range events {
		result = append(result, event.Kind)
	}

	return result
}

// TestService_Lifecycle starts the service, runs a short countdown and stops.
func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		wakeLock := new(fakeWakeLock)
		runs := new(memoryJournal)

		svc, err := newService(ctx, serviceOptions{
			wakeLock: wakeLock,
			journal:  runs,
			machineOptions: []alarm.Option{
				alarm.WithCountdown(countdown.Settings{TotalTicks: 4, TickInterval: time.Second, UpdateFrequency: 2}),
			},
		})
		require.NoError(t, err)

		events, cancel := svc.Subscribe(256)
		defer cancel()

		require.NoError(t, svc.start(ctx))
		require.True(t, svc.presenter.Foreground())
		require.Equal(t, 1, wakeLock.acquired)

		started := drain(events)
		require.Equal(t, []domain.EventKind{domain.KindNotification, domain.KindResume}, kindsOf(started))
		require.Equal(t, domain.TitleDetecting, started[0].Title)

		require.NoError(t, svc.Post(ctx, domain.NewEvent(domain.KindFallDetected)))
		synctest.Wait()

		snapshot := svc.Snapshot(ctx)
		require.Equal(t, domain.StateRunning, snapshot.State)
		require.NotEmpty(t, snapshot.RunID)
		require.Equal(t, domain.TitleWaiting, snapshot.Title)

		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, domain.StateAlarm, svc.Snapshot(ctx).State)

		require.NoError(t, svc.Post(ctx, domain.NewEvent(domain.KindScreenOff)))
		time.Sleep(time.Second)
		synctest.Wait()

		kinds := kindsOf(drain(events))
		require.Contains(t, kinds, domain.KindStartAlarm)
		require.Contains(t, kinds, domain.KindProgress)
		require.Contains(t, kinds, domain.KindStateChanged)
		require.Contains(t, kinds, domain.KindResetSensorListeners)

		svc.stop(ctx)

		require.False(t, svc.presenter.Foreground())
		require.Equal(t, 1, wakeLock.released)
		require.Len(t, runs.runs, 1)
		require.Equal(t, domain.StateAlarm, runs.runs[0].Outcome)

		// The hub closed every subscription.
		_, ok := <-events
		require.False(t, ok)
	})
}

// TestService_WakeLockFailureIsTolerated keeps starting without a wake lock.
func TestService_WakeLockFailureIsTolerated(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		wakeLock := &fakeWakeLock{acquireErr: errTestAcquire}

		svc, err := newService(ctx, serviceOptions{wakeLock: wakeLock})
		require.NoError(t, err)

		require.NoError(t, svc.start(ctx))
		require.Equal(t, domain.StatePending, svc.Snapshot(ctx).State)

		svc.stop(ctx)
	})
}

// TestService_PostRejectsOutbound refuses events the service publishes itself.
func TestService_PostRejectsOutbound(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()

		svc, err := newService(ctx, serviceOptions{})
		require.NoError(t, err)
		require.NoError(t, svc.start(ctx))

		defer svc.stop(ctx)

		require.ErrorIs(t, svc.Post(ctx, domain.NewEvent(domain.KindStartAlarm)), errNotInbound)
		require.ErrorIs(t, svc.Post(ctx, domain.NewEvent(domain.KindProgress)), errNotInbound)
	})
}

// TestNewService_InvalidCountdown surfaces machine construction errors.
func TestNewService_InvalidCountdown(t *testing.T) {
	t.Parallel()

	_, err := newService(context.Background(), serviceOptions{
		machineOptions: []alarm.Option{alarm.WithCountdown(countdown.Settings{})},
	})
	require.Error(t, err)
}

// TestResolveListenAddress checks overrides, loopback and wildcard binding.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("127.0.0.1:50051", ":9090")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	addr, err = resolveListenAddress("127.0.0.1:50051", "")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:50051", addr)

	addr, err = resolveListenAddress("alarm.local:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}
