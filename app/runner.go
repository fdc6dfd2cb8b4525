package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/turret-tracker/domain/capture"
	"github.com/soocke/turret-tracker/domain/tracking"
)

const runnerStatsLogInterval = 10 * time.Second

// FrameSource delivers one frame per call, blocking until it is available.
type FrameSource interface {
	Read() (tracking.Frame, error)
	Bounds() image.Rectangle
}

// CommandPoller returns the command for the current tick. Implementations
// also pace the loop, as a keyboard wait does.
type CommandPoller interface {
	Poll() tracking.Command
}

// Presenter renders a frame and its model. It must not block.
type Presenter interface {
	Present(frame tracking.Frame, m tracking.RenderModel)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(tracking.Frame, tracking.RenderModel)

func (f PresenterFunc) Present(frame tracking.Frame, m tracking.RenderModel) { f(frame, m) }

// Runner drives the controller: one frame read, one command poll, one tick
// and one render per Step. It is single-threaded.
type Runner struct {
	ctrl       *tracking.Controller
	src        FrameSource
	poll       CommandPoller
	presenters []Presenter
	logger     *slog.Logger
	bounds     image.Rectangle
	started    time.Time
	lastLog    time.Time
	steps      uint64
	last       tracking.RenderModel
}

// NewRunner wires the loop. poll may be nil when commands only arrive via
// context cancellation.
func NewRunner(ctrl *tracking.Controller, src FrameSource, poll CommandPoller, logger *slog.Logger, presenters ...Presenter) *Runner {
	return &Runner{ctrl: ctrl, src: src, poll: poll, presenters: presenters, logger: logger}
}

// Last returns the render model produced by the most recent step.
func (r *Runner) Last() tracking.RenderModel { return r.last }

// Done reports whether the controller has terminated.
func (r *Runner) Done() bool { return r.ctrl.State() == tracking.StateTerminal }

// Step runs one tick. A cancelled ctx is delivered as a quit command. The end
// of a finite source also quits. Any other read error releases all resources
// and is returned.
func (r *Runner) Step(ctx context.Context) (tracking.RenderModel, error) {
	if r.Done() {
		return r.last, nil
	}
	if r.started.IsZero() {
		r.started = time.Now()
		r.lastLog = r.started
	}
	frame, err := r.src.Read()
	if err != nil {
		if errors.Is(err, capture.ErrEndOfStream) || errors.Is(err, capture.ErrClosed) {
			if r.logger != nil {
				r.logger.Info("frame source finished", "reason", err.Error())
			}
			return r.tick(nil, tracking.CommandQuit), nil
		}
		_ = r.ctrl.Close()
		return r.last, fmt.Errorf("read frame: %w", err)
	}
	if b := r.src.Bounds(); b != r.bounds {
		r.bounds = b
		r.ctrl.Reconfigure(b.Dx(), b.Dy())
	}
	cmd := tracking.CommandNone
	if r.poll != nil {
		cmd = r.poll.Poll()
	}
	if ctx.Err() != nil {
		cmd = tracking.CommandQuit
	}
	return r.tick(frame, cmd), nil
}

func (r *Runner) tick(frame tracking.Frame, cmd tracking.Command) tracking.RenderModel {
	r.steps++
	m := r.ctrl.Tick(frame, cmd)
	r.last = m
	if m.State == tracking.StateTerminal {
		// The source owning frame was released by the controller.
		frame = nil
	}
	for _, p := range r.presenters {
		r.present(p, frame, m)
	}
	if r.logger != nil && time.Since(r.lastLog) >= runnerStatsLogInterval {
		r.logStats()
	}
	return m
}

func (r *Runner) present(p Presenter, frame tracking.Frame, m tracking.RenderModel) {
	defer func() {
		if rec := recover(); rec != nil && r.logger != nil {
			r.logger.Error("presenter panic", "error", rec, "stack", string(debug.Stack()))
		}
	}()
	p.Present(frame, m)
}

func (r *Runner) logStats() {
	now := time.Now()
	st := r.ctrl.Stats()
	fps := 0.0
	if elapsed := now.Sub(r.started).Seconds(); elapsed > 0 {
		fps = float64(r.steps) / elapsed
	}
	r.logger.Info("tracker stats",
		"state", r.ctrl.State().String(),
		"ticks", humanize.Comma(int64(st.Ticks)),
		"transmissions", humanize.Comma(int64(st.Transmissions)),
		"dropped", st.Dropped,
		"sessions", st.Sessions,
		"fps", humanize.FtoaWithDigits(fps, 1),
		"uptime", now.Sub(r.started).Round(time.Second).String(),
	)
	r.lastLog = now
}

// Run steps until the controller terminates or a step fails. Resources are
// released on every exit path.
func (r *Runner) Run(ctx context.Context) error {
	defer r.ctrl.Close()
	for !r.Done() {
		if _, err := r.Step(ctx); err != nil {
			return err
		}
	}
	if r.logger != nil {
		r.logStats()
	}
	return nil
}
