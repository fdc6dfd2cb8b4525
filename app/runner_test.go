package app

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/turret-tracker/domain/capture"
	"github.com/soocke/turret-tracker/domain/tracking"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type scriptedSource struct {
	bounds image.Rectangle
	frames int
	limit  int
	err    error
	closes int
}

func (s *scriptedSource) Read() (tracking.Frame, error) {
	if s.limit > 0 && s.frames >= s.limit {
		if s.err != nil {
			return nil, s.err
		}
		return nil, capture.ErrEndOfStream
	}
	s.frames++
	return s.frames, nil
}

func (s *scriptedSource) Bounds() image.Rectangle { return s.bounds }

func (s *scriptedSource) Close() error {
	s.closes++
	return nil
}

type queuePoller struct{ cmds []tracking.Command }

func (q *queuePoller) Poll() tracking.Command {
	if len(q.cmds) == 0 {
		return tracking.CommandNone
	}
	c := q.cmds[0]
	q.cmds = q.cmds[1:]
	return c
}

type stillTracker struct{ region tracking.Region }

func (s *stillTracker) Init(_ tracking.Frame, r tracking.Region) error {
	s.region = r
	return nil
}
func (s *stillTracker) Update(tracking.Frame) (tracking.Region, bool) { return s.region, true }
func (s *stillTracker) Close() error                                   { return nil }

type fixedSelector struct{ r tracking.Region }

func (f fixedSelector) Select(tracking.Frame) (tracking.Region, tracking.SelectionStatus) {
	return f.r, tracking.SelectionConfirmed
}

type sink struct{ writes []string }

func (s *sink) Write(p []byte) (int, error) {
	s.writes = append(s.writes, string(p))
	return len(p), nil
}

func newRig(src *scriptedSource, link *sink) *tracking.Controller {
	return tracking.NewController(640, 480, tracking.Deps{
		Logger:    discardLogger(),
		Trackers:  func() (tracking.Tracker, error) { return &stillTracker{}, nil },
		Selector:  fixedSelector{r: tracking.Region{X: 10, Y: 10, Width: 50, Height: 50}},
		Link:      link,
		Resources: []io.Closer{src},
	})
}

func TestRunnerSelectTrackQuit(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480)}
	link := &sink{}
	ctrl := newRig(src, link)
	poll := &queuePoller{cmds: []tracking.Command{tracking.CommandNone, tracking.CommandSelect, tracking.CommandNone, tracking.CommandQuit}}
	var states []tracking.State
	r := NewRunner(ctrl, src, poll, discardLogger(), PresenterFunc(func(_ tracking.Frame, m tracking.RenderModel) {
		states = append(states, m.State)
	}))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []tracking.State{tracking.StateIdle, tracking.StateTracking, tracking.StateTracking, tracking.StateTerminal}, states)
	assert.Equal(t, []string{"-285", "-285"}, link.writes)
	assert.Equal(t, 1, src.closes)
}

func TestRunnerWithholdsReleasedFrameOnQuit(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480)}
	ctrl := newRig(src, &sink{})
	poll := &queuePoller{cmds: []tracking.Command{tracking.CommandNone, tracking.CommandQuit}}
	var frames []tracking.Frame
	r := NewRunner(ctrl, src, poll, discardLogger(), PresenterFunc(func(f tracking.Frame, _ tracking.RenderModel) {
		frames = append(frames, f)
	}))

	require.NoError(t, r.Run(context.Background()))
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[0])
	assert.Nil(t, frames[1])
	assert.Equal(t, 1, src.closes)
}

func TestRunnerEndOfStreamQuits(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480), limit: 3}
	ctrl := newRig(src, &sink{})
	r := NewRunner(ctrl, src, nil, discardLogger())
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, tracking.StateTerminal, r.Last().State)
	assert.Equal(t, 1, src.closes)
}

func TestRunnerReadErrorReleases(t *testing.T) {
	boom := errors.New("device unplugged")
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480), limit: 1, err: boom}
	ctrl := newRig(src, &sink{})
	r := NewRunner(ctrl, src, nil, discardLogger())
	err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, src.closes)
}

func TestRunnerContextCancelIsQuit(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480)}
	link := &sink{}
	ctrl := newRig(src, link)
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctrl, src, &queuePoller{cmds: []tracking.Command{tracking.CommandSelect}}, discardLogger())
	_, err := r.Step(ctx)
	require.NoError(t, err)
	cancel()
	m, err := r.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, tracking.StateTerminal, m.State)
	assert.False(t, m.Transmitted)
	assert.Len(t, link.writes, 1)
	assert.True(t, r.Done())
}

func TestRunnerReconfiguresOnBoundsChange(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 1280, 720)}
	ctrl := newRig(src, &sink{})
	r := NewRunner(ctrl, src, nil, discardLogger())
	m, err := r.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tracking.Point{X: 640, Y: 360}, m.FrameCenter)
}

func TestRunnerRecoversPresenterPanic(t *testing.T) {
	src := &scriptedSource{bounds: image.Rect(0, 0, 640, 480)}
	ctrl := newRig(src, &sink{})
	calls := 0
	r := NewRunner(ctrl, src, nil, discardLogger(),
		PresenterFunc(func(tracking.Frame, tracking.RenderModel) { panic("render") }),
		PresenterFunc(func(tracking.Frame, tracking.RenderModel) { calls++ }),
	)
	_, err := r.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
