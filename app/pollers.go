package app

import "github.com/soocke/turret-tracker/domain/tracking"

// MergePollers polls every source each tick. Quit wins over select, and every
// poller is consulted so paced pollers keep their cadence.
func MergePollers(pollers ...CommandPoller) CommandPoller {
	return mergedPoller(pollers)
}

type mergedPoller []CommandPoller

func (m mergedPoller) Poll() tracking.Command {
	out := tracking.CommandNone
	for _, p := range m {
		if p == nil {
			continue
		}
		switch p.Poll() {
		case tracking.CommandQuit:
			out = tracking.CommandQuit
		case tracking.CommandSelect:
			if out == tracking.CommandNone {
				out = tracking.CommandSelect
			}
		}
	}
	return out
}

// QueuePoller collects commands pushed from event handlers and hands out one
// per Poll. Push never blocks; a full queue drops the command.
type QueuePoller struct {
	ch chan tracking.Command
}

// NewQueuePoller returns a poller with room for size pending commands.
func NewQueuePoller(size int) *QueuePoller {
	if size < 1 {
		size = 1
	}
	return &QueuePoller{ch: make(chan tracking.Command, size)}
}

// Push enqueues cmd and reports whether it was accepted.
func (q *QueuePoller) Push(cmd tracking.Command) bool {
	if cmd == tracking.CommandNone {
		return false
	}
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

func (q *QueuePoller) Poll() tracking.Command {
	select {
	case c := <-q.ch:
		return c
	default:
		return tracking.CommandNone
	}
}
