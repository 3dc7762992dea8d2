package notification

import (
	"context"
	"sync"
	"testing"

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

// count returns how many events were published.
func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.events)
}

// TestPresenter_RenderIsIdempotent ensures identical renders publish once.
func TestPresenter_RenderIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publisher := new(fakePublisher)
	p := New(publisher)

	p.StartForeground(ctx, alarm.TitleDetecting)
	require.True(t, p.Foreground())
	require.Equal(t, 1, publisher.count())

	p.Render(ctx, alarm.TitleDetecting, nil)
	require.Equal(t, 1, publisher.count())

	p.Render(ctx, alarm.TitleWaiting, &alarm.Progress{Max: 240, Current: 0})
	p.Render(ctx, alarm.TitleWaiting, &alarm.Progress{Max: 240, Current: 0})
	require.Equal(t, 2, publisher.count())

	p.Render(ctx, alarm.TitleWaiting, &alarm.Progress{Max: 240, Current: 1})
	require.Equal(t, 3, publisher.count())

	p.Render(ctx, alarm.TitleWaiting, nil)
	require.Equal(t, 4, publisher.count())

	title, progress := p.Current()
	require.Equal(t, alarm.TitleWaiting, title)
	require.Nil(t, progress)

	last := publisher.events[len(publisher.events)-1]
	require.Equal(t, alarm.KindNotification, last.Kind)
	require.Equal(t, alarm.TitleWaiting, last.Title)
}

// TestPresenter_RenderCopiesProgress verifies callers cannot mutate the stored progress.
func TestPresenter_RenderCopiesProgress(t *testing.T) {
	t.Parallel()

	p := New(nil)
	progress := &alarm.Progress{Max: 240, Current: 5}

	p.Render(context.Background(), alarm.TitleWaiting, progress)
	progress.Current = 6

	_, stored := p.Current()
	require.Equal(t, 5, stored.Current)
}

// TestPresenter_StopForeground clears the notification so the next render shows again.
func TestPresenter_StopForeground(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publisher := new(fakePublisher)
	p := New(publisher)

	p.StopForeground(ctx)
	require.False(t, p.Foreground())

	p.StartForeground(ctx, alarm.TitleDetecting)
	p.StopForeground(ctx)
	require.False(t, p.Foreground())

	title, _ := p.Current()
	require.Empty(t, title)

	p.StartForeground(ctx, alarm.TitleDetecting)
	require.Equal(t, 2, publisher.count())
}
