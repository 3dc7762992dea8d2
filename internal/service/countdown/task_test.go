package countdown

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []alarm.Event
}

// Publish stores the event.
func (f *fakePublisher) Publish(event alarm.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
}

// ticks returns the progress ticks published so far.
func (f *fakePublisher) ticks() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]int, 0, len(f.events))
	for _, event := range f.events {
		result = append(result, event.Progress.Current)
	}

	return result
}

// hookRecorder records hook invocations in order.
type hookRecorder struct {
	mu       sync.Mutex
	progress []int
	finishes []bool
	// order interleaves "p" for progress and "f" for finish.
	order []string
}

// hooks returns Hooks bound to the recorder.
func (r *hookRecorder) hooks() Hooks {
	return Hooks{
		OnProgress: func(tick int) {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.progress = append(r.progress, tick)
			r.order = append(r.order, "p")
		},
		OnFinish: func(completed bool) {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.finishes = append(r.finishes, completed)
			r.order = append(r.order, "f")
		},
	}
}

// snapshot returns copies of the recorded slices.
func (r *hookRecorder) snapshot() ([]int, []bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.progress...), append([]bool(nil), r.finishes...), append([]string(nil), r.order...)
}

// TestDefaultSettings pins the fixed countdown constants.
func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	require.Equal(t, 240, s.TotalTicks)
	require.Equal(t, 250*time.Millisecond, s.TickInterval)
	require.Equal(t, 16, s.UpdateFrequency)
	require.NoError(t, s.Validate())
	require.Equal(t, 60250*time.Millisecond, s.Duration())

	require.Error(t, Settings{TotalTicks: -1, TickInterval: time.Second, UpdateFrequency: 1}.Validate())
	require.Error(t, Settings{TotalTicks: 1, UpdateFrequency: 1}.Validate())
	require.Error(t, Settings{TotalTicks: 1, TickInterval: time.Second}.Validate())
}

// TestTask_Completes runs the full countdown and checks ticks, published progress and outcome.
func TestTask_Completes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		publisher := new(fakePublisher)
		recorder := new(hookRecorder)
		start := time.Now()

		task := Start(context.Background(), DefaultSettings(), publisher, recorder.hooks())
		require.NotEmpty(t, task.ID())

		completed, err := task.Wait(context.Background())
		require.NoError(t, err)
		require.True(t, completed)
		require.True(t, task.Completed())
		require.Equal(t, 60250*time.Millisecond, time.Since(start))

		progress, finishes, order := recorder.snapshot()
		require.Len(t, progress, 241)

		for i, tick := range progress {
			require.Equal(t, i, tick)
		}

		require.Equal(t, []bool{true}, finishes)
		require.Equal(t, "f", order[len(order)-1])
		require.Equal(t, 240, task.LastTick())

		want := make([]int, 0, 16)
		for tick := 0; tick <= 240; tick += 16 {
			want = append(want, tick)
		}

		require.Equal(t, want, publisher.ticks())

		for _, event := range publisher.events {
			require.Equal(t, alarm.KindProgress, event.Kind)
			require.Equal(t, 240, event.Progress.Max)
			require.Equal(t, task.ID(), event.RunID)
		}
	})
}

// TestTask_CancelStopsWithinOneTick cancels mid-run and checks nothing is emitted afterwards.
func TestTask_CancelStopsWithinOneTick(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		publisher := new(fakePublisher)
		recorder := new(hookRecorder)

		task := Start(context.Background(), DefaultSettings(), publisher, recorder.hooks())

		// Tick 10 is emitted at 11 * 250ms.
		time.Sleep(2800 * time.Millisecond)
		synctest.Wait()

		cancelledAt := time.Now()
		task.Cancel()

		completed, err := task.Wait(context.Background())
		require.NoError(t, err)
		require.False(t, completed)
		require.True(t, task.Cancelled())
		require.Zero(t, time.Since(cancelledAt))

		progress, finishes, _ := recorder.snapshot()
		require.Len(t, progress, 11)
		require.Equal(t, 10, progress[len(progress)-1])
		require.Equal(t, []bool{false}, finishes)
		require.Equal(t, []int{0}, publisher.ticks())

		// Nothing more arrives later.
		time.Sleep(time.Minute)
		synctest.Wait()

		progress, finishes, _ = recorder.snapshot()
		require.Len(t, progress, 11)
		require.Len(t, finishes, 1)

		// Cancelling a finished task is a no-op.
		task.Cancel()
		require.False(t, task.Completed())
	})
}

// TestTask_CancelBeforeFirstTick resolves immediately without progress.
func TestTask_CancelBeforeFirstTick(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		recorder := new(hookRecorder)

		task := Start(context.Background(), DefaultSettings(), nil, recorder.hooks())
		task.Cancel()

		require.False(t, task.Completed())

		progress, finishes, order := recorder.snapshot()
		require.Empty(t, progress)
		require.Equal(t, []bool{false}, finishes)
		require.Equal(t, []string{"f"}, order)
		require.Equal(t, -1, task.LastTick())
	})
}

// TestTask_ParentContextInterrupts treats a cancelled parent context as not completed.
func TestTask_ParentContextInterrupts(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		recorder := new(hookRecorder)

		task := Start(ctx, DefaultSettings(), nil, recorder.hooks())

		time.Sleep(time.Second)
		cancel()

		require.False(t, task.Completed())
		require.False(t, task.Cancelled())

		_, finishes, _ := recorder.snapshot()
		require.Equal(t, []bool{false}, finishes)
	})
}

// TestTask_WaitHonoursContext returns the context error when the caller gives up first.
func TestTask_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		task := Start(context.Background(), DefaultSettings(), nil, Hooks{})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := task.Wait(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		task.Cancel()
		<-task.Done()
	})
}

// TestTask_NewDefersStart keeps the task idle until Start and ignores a second Start.
func TestTask_NewDefersStart(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		recorder := new(hookRecorder)
		task := New(Settings{TotalTicks: 3, TickInterval: time.Second, UpdateFrequency: 1}, nil, recorder.hooks())

		time.Sleep(10 * time.Second)
		synctest.Wait()

		progress, _, _ := recorder.snapshot()
		require.Empty(t, progress)

		task.Start(context.Background())
		task.Start(context.Background())
		require.True(t, task.Completed())

		progress, finishes, _ := recorder.snapshot()
		require.Equal(t, []int{0, 1, 2, 3}, progress)
		require.Equal(t, []bool{true}, finishes)
	})
}
