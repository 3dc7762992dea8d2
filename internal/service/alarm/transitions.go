package alarm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/countdown"
)

// onStart enters RUNNING from a fall: announce, launch the UI, show the
// waiting notification and start the countdown.
func (m *Machine) onStart(ctx context.Context, _ ...any) error {
	var (
		task   *countdown.Task
		runCtx context.Context
	)

	// Hooks only run after task.Start, by which time runCtx is set.
	task = countdown.New(m.settings, m.bus, countdown.Hooks{
		OnProgress: func(tick int) {
			m.onProgress(runCtx, task, tick)
		},
		OnFinish: func(completed bool) {
			m.onFinish(runCtx, task, completed)
		},
	})

	m.run = &domain.Run{
		ID:        task.ID(),
		StartedAt: time.Now(),
		LastTick:  -1,
		MaxTicks:  m.settings.TotalTicks,
	}

	ctx = logger.WithKV(ctx, "run_id", task.ID())

	started := domain.NewEvent(domain.KindStartAlarm)
	started.RunID = task.ID()
	m.bus.Publish(started)

	if m.launcher != nil {
		if err := m.launcher.Launch(ctx); err != nil {
			logger.WarnKV(ctx, "Unable to launch alarm UI", "error", err)
		}
	}

	m.render(ctx, domain.TitleWaiting, nil)

	runCtx, m.span = m.tracer.Start(m.ctx, "alarm.countdown", trace.WithAttributes(
		attribute.String("alarm.run_id", task.ID()),
		attribute.Int("alarm.max_ticks", m.settings.TotalTicks),
	))
	runCtx = logger.WithKV(runCtx, "run_id", task.ID())

	m.task = task
	task.Start(runCtx)

	logger.InfoKV(ctx, "Fall detected, countdown started", "duration", m.settings.Duration().String())

	return nil
}

// onStop handles a stop while RUNNING: ask the countdown to stop. The state
// changes once the countdown reports back.
func (m *Machine) onStop(ctx context.Context, _ ...any) error {
	if m.task == nil {
		return nil
	}

	logger.InfoKV(ctx, "Alarm stop requested", "run_id", m.task.ID(), "tick", m.task.LastTick())

	m.task.Cancel()

	return nil
}

// onOutcome enters ALARM or CANCELLED: show the result, forget the task and
// schedule the settle timer.
func (m *Machine) onOutcome(ctx context.Context, _ ...any) error {
	completed := m.state == domain.StateAlarm

	title := domain.TitleCancelled
	if completed {
		title = domain.TitleSent
	}

	m.render(ctx, title, nil)

	if m.run != nil {
		m.run.FinishedAt = time.Now()
		m.run.Outcome = m.state

		finished := *m.run
		m.finished = &finished
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.Bool("alarm.completed", completed),
			attribute.Int("alarm.last_tick", m.run.LastTick),
		)
		m.span.End()
		m.span = nil
	}

	m.task = nil

	m.scheduleSettle()

	return nil
}

// onSettled enters PENDING from a settle: back to detecting.
func (m *Machine) onSettled(ctx context.Context, _ ...any) error {
	m.render(ctx, domain.TitleDetecting, nil)

	return nil
}

// onProgress is the countdown progress hook.
func (m *Machine) onProgress(ctx context.Context, task *countdown.Task, tick int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.task != task {
		return
	}

	m.run.LastTick = tick
	m.render(ctx, domain.TitleWaiting, &domain.Progress{
		Max:     m.settings.TotalTicks,
		Current: tick,
	})
}

// onFinish is the countdown terminal hook.
func (m *Machine) onFinish(ctx context.Context, task *countdown.Task, completed bool) {
	m.mu.Lock()

	if m.task != task {
		m.mu.Unlock()
		return
	}

	t := triggerCancelled
	if completed {
		t = triggerCompleted
	}

	m.fire(ctx, t)

	finished := m.finished
	m.finished = nil

	m.mu.Unlock()

	m.record(ctx, finished)
}

// scheduleSettle arms a one-shot timer that returns the machine to PENDING.
// Callers hold mu.
func (m *Machine) scheduleSettle() {
	if m.closed {
		return
	}

	var timer *time.Timer

	timer = time.AfterFunc(m.settleDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.settles, timer)

		if m.closed {
			return
		}

		if m.state == domain.StateRunning {
			logger.Debug(m.ctx, "Settle skipped, a new countdown is running")
		}

		m.fire(m.ctx, triggerSettle)
	})

	m.settles[timer] = struct{}{}
}

// record writes a finished run to the journal, outside mu.
func (m *Machine) record(ctx context.Context, run *domain.Run) {
	if run == nil || m.journal == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if err := m.journal.Record(ctx, run); err != nil {
		logger.WarnKV(ctx, "Unable to record alarm run", "run_id", run.ID, "error", err)
	}
}
