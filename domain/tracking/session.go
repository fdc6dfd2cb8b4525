package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TrackResult is the outcome of one session update.
type TrackResult struct {
	Region Region
	OK     bool
}

// Session wraps one tracker instance for the lifetime of one tracked object.
// It can be initialised once; after the first failed update it stays failed
// and must be discarded.
type Session struct {
	id          string
	tracker     Tracker
	region      Region
	started     time.Time
	frames      int
	initialized bool
	failed      bool
	closed      bool
}

// NewSession binds a fresh tracker to a new session.
func NewSession(tracker Tracker) *Session {
	return &Session{id: uuid.NewString(), tracker: tracker}
}

// ID returns the correlation id used in logs and telemetry.
func (s *Session) ID() string { return s.id }

// Region returns the last region reported by the tracker.
func (s *Session) Region() Region { return s.region }

// Frames returns the number of successful updates.
func (s *Session) Frames() int { return s.frames }

// Age returns the time since Init succeeded.
func (s *Session) Age() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}

// Init seeds the tracker with the confirmed region.
func (s *Session) Init(frame Frame, region Region) error {
	if s.initialized {
		return ErrSessionInitialized
	}
	if region.Degenerate() {
		return fmt.Errorf("init %s: %w", region, ErrDegenerateRegion)
	}
	if s.tracker == nil {
		return fmt.Errorf("init %s: no tracker", region)
	}
	if err := s.tracker.Init(frame, region); err != nil {
		return fmt.Errorf("tracker init: %w", err)
	}
	s.initialized = true
	s.region = region
	s.started = time.Now()
	return nil
}

// Update advances the tracker by one frame. A degenerate region reported as
// success is treated as a failure.
func (s *Session) Update(frame Frame) TrackResult {
	if !s.initialized || s.failed || s.closed {
		return TrackResult{Region: s.region}
	}
	r, ok := s.tracker.Update(frame)
	if !ok || r.Degenerate() {
		s.failed = true
		return TrackResult{Region: r}
	}
	s.region = r
	s.frames++
	return TrackResult{Region: r, OK: true}
}

// Failed reports whether an update has failed.
func (s *Session) Failed() bool { return s.failed }

// Close releases the tracker. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tracker == nil {
		return nil
	}
	return s.tracker.Close()
}
