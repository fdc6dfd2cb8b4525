package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soocke/turret-tracker/domain/tracking"
)

type fixedPoller struct {
	cmd   tracking.Command
	calls int
}

func (f *fixedPoller) Poll() tracking.Command {
	f.calls++
	return f.cmd
}

func TestMergePollersQuitWins(t *testing.T) {
	sel := &fixedPoller{cmd: tracking.CommandSelect}
	quit := &fixedPoller{cmd: tracking.CommandQuit}
	p := MergePollers(sel, nil, quit)
	assert.Equal(t, tracking.CommandQuit, p.Poll())
	assert.Equal(t, 1, sel.calls, "every poller is consulted")
	assert.Equal(t, 1, quit.calls)
}

func TestMergePollersSelect(t *testing.T) {
	p := MergePollers(&fixedPoller{}, &fixedPoller{cmd: tracking.CommandSelect})
	assert.Equal(t, tracking.CommandSelect, p.Poll())
	assert.Equal(t, tracking.CommandNone, MergePollers().Poll())
}

func TestQueuePoller(t *testing.T) {
	q := NewQueuePoller(1)
	assert.False(t, q.Push(tracking.CommandNone))
	assert.True(t, q.Push(tracking.CommandSelect))
	assert.False(t, q.Push(tracking.CommandQuit), "full queue drops")
	assert.Equal(t, tracking.CommandSelect, q.Poll())
	assert.Equal(t, tracking.CommandNone, q.Poll())
}

func TestFixedSelector(t *testing.T) {
	r := tracking.Region{X: 1, Y: 2, Width: 3, Height: 4}
	got, status := FixedSelector{Region: r}.Select(nil)
	assert.Equal(t, tracking.SelectionConfirmed, status)
	assert.Equal(t, r, got)
	_, status = FixedSelector{}.Select(nil)
	assert.Equal(t, tracking.SelectionCancelled, status)
}
