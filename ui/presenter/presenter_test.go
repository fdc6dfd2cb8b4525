package presenter

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/model"
)

type fakeView struct {
	states   []string
	offsets  []string
	previews int
	targets  []image.Image
	session  time.Duration
	total    time.Duration
	stats    []string
}

func (v *fakeView) SetStateLabel(s string) { v.states = append(v.states, s) }
func (v *fakeView) SetOffsetLabel(s string) { v.offsets = append(v.offsets, s) }
func (v *fakeView) UpdatePreview(image.Image) { v.previews++ }
func (v *fakeView) UpdateTarget(img image.Image) { v.targets = append(v.targets, img) }
func (v *fakeView) SetSession(s, t time.Duration) { v.session, v.total = s, t }
func (v *fakeView) SetStats(text string) { v.stats = append(v.stats, text) }

func trackingModel() tracking.RenderModel {
	r := tracking.Region{X: 10, Y: 10, Width: 20, Height: 20}
	return tracking.RenderModel{
		State:       tracking.StateTracking,
		Region:      &r,
		Offset:      &tracking.Offset{DX: -12, DY: -4},
		FrameCenter: tracking.FrameCenter(64, 48),
		Session:     "s1",
		Transmitted: true,
	}
}

func TestRenderPresenterLabelsOnlyOnChange(t *testing.T) {
	v := &fakeView{}
	p := NewRenderPresenter(v, v, nil)
	idle := tracking.RenderModel{State: tracking.StateIdle}
	p.Present(nil, idle)
	p.Present(nil, idle)
	p.Present(nil, trackingModel())
	assert.Equal(t, []string{"State: idle", "State: tracking"}, v.states)
	assert.Equal(t, []string{"Offset: -", "Offset: dx=-12 dy=-4 sent"}, v.offsets)
	assert.Zero(t, v.previews, "non-image frames are not previewed")
}

func TestRenderPresenterPreviewAndTarget(t *testing.T) {
	v := &fakeView{}
	p := NewRenderPresenter(v, v, nil)
	p.PreviewEvery = 2
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := 0; i < 4; i++ {
		p.Present(frame, trackingModel())
	}
	assert.Equal(t, 2, v.previews)
	require.Len(t, v.targets, 4)
	assert.Equal(t, 20, v.targets[0].Bounds().Dx())

	p.Present(frame, tracking.RenderModel{State: tracking.StateLost})
	require.Len(t, v.targets, 5)
	assert.Nil(t, v.targets[4], "target cleared once tracking stops")
	p.Present(frame, tracking.RenderModel{State: tracking.StateIdle})
	assert.Len(t, v.targets, 5)
}

func TestSessionPresenterTick(t *testing.T) {
	v := &fakeView{}
	stats := tracking.Stats{Transmissions: 1234, Dropped: 2}
	p := NewSessionPresenter(model.NewSessionModel(), func() tracking.Stats { return stats }, v)
	base := time.Unix(0, 0)
	p.Present(nil, tracking.RenderModel{Session: "s1"})
	p.Tick(base)
	p.Tick(base.Add(3 * time.Second))
	assert.Equal(t, 3*time.Second, v.session)
	assert.Equal(t, 3*time.Second, v.total)
	require.Len(t, v.stats, 1, "unchanged stats are not pushed again")
	assert.Equal(t, "sent 1,234  dropped 2  lost 0  sessions 1", v.stats[0])
}

type fakeStepper struct {
	steps  int
	doneAt int
	err    error
}

func (s *fakeStepper) Step(context.Context) (tracking.RenderModel, error) {
	s.steps++
	if s.err != nil && s.steps == s.doneAt {
		return tracking.RenderModel{}, s.err
	}
	return tracking.RenderModel{}, nil
}

func (s *fakeStepper) Done() bool { return s.err == nil && s.steps >= s.doneAt }

func TestLoopReschedulesUntilDone(t *testing.T) {
	st := &fakeStepper{doneAt: 3}
	var exits []error
	var l *Loop
	scheduled := 0
	l = NewLoop(context.Background(), st, nil, func() { scheduled++; l.Tick() }, func(err error) { exits = append(exits, err) })
	l.Tick()
	assert.Equal(t, 3, st.steps)
	assert.Equal(t, 2, scheduled)
	require.Len(t, exits, 1)
	assert.NoError(t, exits[0])
	l.Tick()
	assert.Equal(t, 3, st.steps, "no steps after exit")
}

func TestLoopStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	st := &fakeStepper{doneAt: 1, err: boom}
	var got error
	l := NewLoop(context.TODO(), st, nil, func() { t.Fatal("rescheduled after error") }, func(err error) { got = err })
	l.Tick()
	assert.ErrorIs(t, got, boom)
}

func TestNilLoopIsNoop(t *testing.T) {
	var l *Loop
	l.Tick()
}
