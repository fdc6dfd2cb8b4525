package tracking

import (
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/turret-tracker/domain/actuator"
)

type fixture struct {
	pool     *trackerPool
	selector *scriptedSelector
	link     *recordingLink
	source   *countingCloser
	port     *countingCloser
	order    []string
	c        *Controller
}

func newFixture(region Region) *fixture {
	f := &fixture{
		pool:     &trackerPool{},
		selector: &scriptedSelector{region: region},
		link:     &recordingLink{},
	}
	f.source = &countingCloser{name: "source", order: &f.order}
	f.port = &countingCloser{name: "link", order: &f.order}
	f.c = NewController(640, 480, Deps{
		Logger:    discardLogger(),
		Trackers:  f.pool.factory(),
		Selector:  f.selector,
		Link:      f.link,
		Resources: []io.Closer{f.source, f.port},
	})
	return f
}

func TestScenarioSelectAndTransmit(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	m := f.c.Tick(nil, CommandSelect)

	require.Equal(t, StateTracking, m.State)
	want := RenderModel{
		State:       StateTracking,
		Region:      &Region{10, 10, 50, 50},
		Offset:      &Offset{DX: -285, DY: -205},
		FrameCenter: Point{320, 240},
		Hints:       []Hint{HintSelect, HintQuit},
		Session:     m.Session,
		Transmitted: true,
		Keys:        DefaultKeyBindings(),
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("render model mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, m.Session)
	assert.Equal(t, []string{"-285"}, f.link.writes)
}

func TestScenarioCenteredTarget(t *testing.T) {
	f := newFixture(Region{300, 220, 40, 40})
	f.c.Tick(nil, CommandSelect)
	m := f.c.Tick(nil, CommandNone)
	require.NotNil(t, m.Offset)
	assert.Equal(t, Offset{}, *m.Offset)
	assert.Equal(t, []string{"0", "0"}, f.link.writes)
}

func TestScenarioTrackerFailure(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.c.Tick(nil, CommandSelect)
	require.Len(t, f.pool.built, 1)
	f.pool.built[0].fail = true

	m := f.c.Tick(nil, CommandNone)
	assert.Equal(t, StateLost, m.State)
	assert.Nil(t, m.Region)
	assert.Nil(t, m.Offset)
	assert.False(t, m.Transmitted)
	assert.Equal(t, 1, f.pool.built[0].closes)
	assert.Len(t, f.link.writes, 1)

	m = f.c.Tick(nil, CommandNone)
	assert.Equal(t, StateIdle, m.State)
	assert.Equal(t, []Hint{HintSelect, HintQuit}, m.Hints)
	assert.Len(t, f.link.writes, 1)
	assert.Equal(t, uint64(1), f.c.Stats().Lost)
}

func TestLostThenSelectStartsNewSession(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.c.Tick(nil, CommandSelect)
	f.pool.built[0].fail = true
	f.c.Tick(nil, CommandNone)

	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateTracking, m.State)
	require.Len(t, f.pool.built, 2)
	assert.NotSame(t, f.pool.built[0], f.pool.built[1])
}

func TestScenarioQuitWins(t *testing.T) {
	for _, start := range []string{"idle", "tracking", "lost", "selecting"} {
		t.Run(start, func(t *testing.T) {
			f := newFixture(Region{10, 10, 50, 50})
			switch start {
			case "tracking":
				f.c.Tick(nil, CommandSelect)
			case "lost":
				f.c.Tick(nil, CommandSelect)
				f.pool.built[0].fail = true
				f.c.Tick(nil, CommandNone)
			case "selecting":
				f.selector.results = []SelectionStatus{SelectionPending}
				f.c.Tick(nil, CommandSelect)
				require.Equal(t, StateSelecting, f.c.State())
			}
			before := len(f.link.writes)

			m := f.c.Tick(nil, CommandQuit)
			assert.Equal(t, StateTerminal, m.State)
			assert.False(t, m.Transmitted)
			assert.Len(t, f.link.writes, before)
			assert.Equal(t, 1, f.source.closes)
			assert.Equal(t, 1, f.port.closes)
			assert.Equal(t, []string{"link", "source"}, f.order)
			for _, tr := range f.pool.built {
				assert.Equal(t, 1, tr.closes)
			}

			f.c.Tick(nil, CommandQuit)
			f.c.Tick(nil, CommandSelect)
			require.NoError(t, f.c.Close())
			assert.Equal(t, 1, f.source.closes)
			assert.Equal(t, 1, f.port.closes)
			assert.Equal(t, StateTerminal, f.c.State())
		})
	}
}

func TestSelectionCancelled(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.selector.results = []SelectionStatus{SelectionCancelled}
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateIdle, m.State)
	assert.Empty(t, f.pool.built)
	assert.Empty(t, f.link.writes)
}

func TestSentinelSelectionIsCancellation(t *testing.T) {
	f := newFixture(Region{})
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateIdle, m.State)
	assert.Empty(t, f.pool.built)
}

func TestPendingSelectionKeepsSelecting(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.selector.results = []SelectionStatus{SelectionPending, SelectionPending, SelectionConfirmed}

	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateSelecting, m.State)
	assert.Equal(t, []Hint{HintConfirm, HintCancel}, m.Hints)
	m = f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateSelecting, m.State)
	m = f.c.Tick(nil, CommandNone)
	assert.Equal(t, StateTracking, m.State)
	assert.Equal(t, 3, f.selector.calls)
	assert.Len(t, f.pool.built, 1)
}

func TestLeavingSelectionEarlyAbortsSelector(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.selector.results = []SelectionStatus{SelectionPending}

	require.Equal(t, StateSelecting, f.c.Tick(nil, CommandSelect).State)
	f.c.Reconfigure(1280, 720)
	assert.Equal(t, StateIdle, f.c.State())
	assert.Equal(t, 1, f.selector.aborts)

	require.Equal(t, StateSelecting, f.c.Tick(nil, CommandSelect).State)
	f.c.Tick(nil, CommandQuit)
	assert.Equal(t, StateTerminal, f.c.State())
	assert.Equal(t, 2, f.selector.aborts)
}

func TestFinishedSelectionIsNotAborted(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.selector.results = []SelectionStatus{SelectionCancelled}
	f.c.Tick(nil, CommandSelect)
	f.c.Tick(nil, CommandQuit)
	assert.Zero(t, f.selector.aborts)
}

func TestTrackerInitFailureReturnsToIdle(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.pool.next = func() *fakeTracker { return &fakeTracker{initErr: errBoom} }
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateIdle, m.State)
	require.Len(t, f.pool.built, 1)
	assert.Equal(t, 1, f.pool.built[0].closes)
	assert.Empty(t, f.link.writes)
}

func TestTrackerFactoryErrorReturnsToIdle(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.pool.err = errBoom
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateIdle, m.State)
}

func TestReselectReplacesSession(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.c.Tick(nil, CommandSelect)
	first := f.c.Tick(nil, CommandNone).Session

	f.selector.region = Region{300, 220, 40, 40}
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateTracking, m.State)
	assert.NotEqual(t, first, m.Session)
	require.Len(t, f.pool.built, 2)
	assert.Equal(t, 1, f.pool.built[0].closes)
	assert.Equal(t, []string{"-285", "-285", "0"}, f.link.writes)
}

func TestTrackingFollowsUpdates(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.pool.next = func() *fakeTracker {
		return &fakeTracker{updates: []Region{{20, 10, 50, 50}, {400, 300, 20, 20}}}
	}
	f.c.Tick(nil, CommandSelect)
	m1 := f.c.Tick(nil, CommandNone)
	m2 := f.c.Tick(nil, CommandNone)
	assert.Equal(t, Offset{-275, -205}, *m1.Offset)
	assert.Equal(t, Offset{90, 70}, *m2.Offset)
	assert.Equal(t, []string{"-285", "-275", "90"}, f.link.writes)
}

func TestBusyLinkDropsSignal(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.link.err = fmt.Errorf("write: %w", actuator.ErrWouldBlock)
	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, StateTracking, m.State)
	assert.False(t, m.Transmitted)
	require.NotNil(t, m.Offset)
	st := f.c.Stats()
	assert.Equal(t, uint64(1), st.Dropped)
	assert.Zero(t, st.WriteErrors)

	f.link.err = errBoom
	m = f.c.Tick(nil, CommandNone)
	assert.Equal(t, StateTracking, m.State)
	assert.Equal(t, uint64(1), f.c.Stats().WriteErrors)

	f.link.err = nil
	m = f.c.Tick(nil, CommandNone)
	assert.True(t, m.Transmitted)
}

func TestNoLinkNeverTransmits(t *testing.T) {
	pool := &trackerPool{}
	c := NewController(640, 480, Deps{Trackers: pool.factory(), Selector: &scriptedSelector{region: Region{10, 10, 50, 50}}})
	m := c.Tick(nil, CommandSelect)
	assert.Equal(t, StateTracking, m.State)
	assert.False(t, m.Transmitted)
}

func TestIdleWithoutCommandIsStable(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	for i := 0; i < 5; i++ {
		m := f.c.Tick(nil, CommandNone)
		assert.Equal(t, StateIdle, m.State)
		assert.Nil(t, m.Offset)
	}
	assert.Zero(t, f.selector.calls)
	assert.Equal(t, uint64(5), f.c.Stats().Ticks)
}

func TestReconfigureResetsSession(t *testing.T) {
	f := newFixture(Region{10, 10, 50, 50})
	f.c.Tick(nil, CommandSelect)
	f.c.Reconfigure(1280, 720)
	assert.Equal(t, StateIdle, f.c.State())
	assert.Equal(t, Point{640, 360}, f.c.FrameCenter())
	assert.Equal(t, 1, f.pool.built[0].closes)

	m := f.c.Tick(nil, CommandSelect)
	assert.Equal(t, Offset{-605, -325}, *m.Offset)
}

func TestCloseJoinsErrors(t *testing.T) {
	bad := &countingCloser{err: errBoom}
	c := NewController(640, 480, Deps{Resources: []io.Closer{bad, nil}})
	err := c.Close()
	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, bad.closes)
}
