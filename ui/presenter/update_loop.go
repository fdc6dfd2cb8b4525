package presenter

import (
	"context"
	"time"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// Stepper advances the tracking loop by one tick.
type Stepper interface {
	Step(ctx context.Context) (tracking.RenderModel, error)
	Done() bool
}

// Loop drives one Stepper tick per scheduled callback, then the session
// presenter, then reschedules. The zero value is usable (methods are nil-safe).
type Loop struct {
	Ctx      context.Context
	Runner   Stepper
	Session  *SessionPresenter
	Schedule func()
	// OnExit runs once when the runner finishes or fails.
	OnExit func(error)

	exited bool
}

func NewLoop(ctx context.Context, runner Stepper, sess *SessionPresenter, schedule func(), onExit func(error)) *Loop {
	return &Loop{Ctx: ctx, Runner: runner, Session: sess, Schedule: schedule, OnExit: onExit}
}

func (l *Loop) Tick() {
	if l == nil || l.exited {
		return
	}
	ctx := l.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	if l.Runner != nil {
		_, err = l.Runner.Step(ctx)
	}
	if l.Session != nil {
		l.Session.Tick(time.Now())
	}
	if err != nil || (l.Runner != nil && l.Runner.Done()) {
		l.exited = true
		if l.OnExit != nil {
			l.OnExit(err)
		}
		return
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
