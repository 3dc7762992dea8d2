package notification

import (
	"context"
	"sync"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// Presenter renders the alarm status notification.
type Presenter struct {
	// publisher receives KindNotification events; may be nil.
	publisher eventbus.Publisher

	// mu protects the fields below.
	mu         sync.Mutex
	foreground bool
	rendered   bool
	title      string
	progress   *alarm.Progress
}

// New creates a presenter mirroring notifications to publisher.
func New(publisher eventbus.Publisher) *Presenter {
	return &Presenter{
		publisher: publisher,
	}
}

// StartForeground marks the service as foreground and shows the initial notification.
func (p *Presenter) StartForeground(ctx context.Context, title string) {
	p.mu.Lock()
	p.foreground = true
	p.mu.Unlock()

	logger.Info(ctx, "Foreground notification started")

	p.Render(ctx, title, nil)
}

// StopForeground removes the notification.
func (p *Presenter) StopForeground(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.foreground {
		return
	}

	p.foreground = false
	p.rendered = false
	p.title = ""
	p.progress = nil

	logger.Info(ctx, "Foreground notification removed")
}

// Foreground reports whether the notification is currently shown.
func (p *Presenter) Foreground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.foreground
}

// Render shows title with optional progress. Repeating the last call has no effect.
func (p *Presenter) Render(ctx context.Context, title string, progress *alarm.Progress) {
	p.mu.Lock()

	if p.rendered && p.title == title && sameProgress(p.progress, progress) {
		p.mu.Unlock()
		return
	}

	titleChanged := !p.rendered || p.title != title

	p.rendered = true
	p.title = title
	p.progress = progress.Clone()

	// Publish under the lock so watchers see renders in order.
	if p.publisher != nil {
		event := alarm.NewEvent(alarm.KindNotification)
		event.Title = title
		event.Progress = progress.Clone()
		p.publisher.Publish(event)
	}

	p.mu.Unlock()

	if titleChanged || progress == nil {
		logger.InfoKV(ctx, "Notification updated", "title", title)
		return
	}

	logger.DebugKV(ctx, "Notification progress", "current", progress.Current, "max", progress.Max)
}

// Current returns the last rendered title and progress.
func (p *Presenter) Current() (string, *alarm.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.title, p.progress.Clone()
}

// sameProgress compares two optional progress values.
func sameProgress(a, b *alarm.Progress) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
