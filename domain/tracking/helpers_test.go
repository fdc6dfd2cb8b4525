package tracking

import (
	"errors"
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTracker struct {
	initErr  error
	updates  []Region
	fail     bool
	calls    int
	inits    int
	closes   int
	lastInit Region
}

func (f *fakeTracker) Init(_ Frame, r Region) error {
	f.inits++
	f.lastInit = r
	return f.initErr
}

func (f *fakeTracker) Update(_ Frame) (Region, bool) {
	f.calls++
	if f.fail {
		return Region{}, false
	}
	if len(f.updates) == 0 {
		return f.lastInit, true
	}
	r := f.updates[0]
	if len(f.updates) > 1 {
		f.updates = f.updates[1:]
	}
	return r, true
}

func (f *fakeTracker) Close() error {
	f.closes++
	return nil
}

type trackerPool struct {
	built []*fakeTracker
	next  func() *fakeTracker
	err   error
}

func (p *trackerPool) factory() TrackerFactory {
	return func() (Tracker, error) {
		if p.err != nil {
			return nil, p.err
		}
		t := &fakeTracker{}
		if p.next != nil {
			t = p.next()
		}
		p.built = append(p.built, t)
		return t, nil
	}
}

type scriptedSelector struct {
	region  Region
	results []SelectionStatus
	calls   int
	aborts  int
}

func (s *scriptedSelector) Abort() { s.aborts++ }

func (s *scriptedSelector) Select(Frame) (Region, SelectionStatus) {
	s.calls++
	if len(s.results) == 0 {
		return s.region, SelectionConfirmed
	}
	st := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return s.region, st
}

type recordingLink struct {
	writes []string
	err    error
}

func (l *recordingLink) Write(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.writes = append(l.writes, string(p))
	return len(p), nil
}

type countingCloser struct {
	name   string
	closes int
	order  *[]string
	err    error
}

func (c *countingCloser) Close() error {
	c.closes++
	if c.order != nil {
		*c.order = append(*c.order, c.name)
	}
	return c.err
}

var errBoom = errors.New("boom")
