package capture

import (
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/turret-tracker/domain/tracking"
)

const captureStatsLogInterval = 5 * time.Second

// ScreenSource captures a fixed screen rectangle on a background goroutine and
// hands out the freshest frame to Read.
type ScreenSource struct {
	rect         image.Rectangle
	interval     time.Duration
	grab         GrabFunc
	logger       *slog.Logger
	latest       atomic.Pointer[FrameSnapshot]
	notify       chan struct{}
	stop         chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
	lastRead     uint64
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

var _ Source = (*ScreenSource)(nil)

// NewScreenSource starts capturing rect every interval. A nil grab uses
// GrabRect.
func NewScreenSource(rect image.Rectangle, interval time.Duration, grab GrabFunc, logger *slog.Logger) *ScreenSource {
	if grab == nil {
		grab = GrabRect
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	s := &ScreenSource{
		rect:     rect,
		interval: interval,
		grab:     grab,
		logger:   logger,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Bounds returns the frame bounds, which always start at the origin.
func (s *ScreenSource) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.rect.Dx(), s.rect.Dy())
}

// ScreenRect returns the captured rectangle in screen coordinates.
func (s *ScreenSource) ScreenRect() image.Rectangle { return s.rect }

// LatestFrame returns the most recent capture without waiting.
func (s *ScreenSource) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

// Read blocks until a frame newer than the one returned previously exists.
// Read must be called from a single goroutine.
func (s *ScreenSource) Read() (tracking.Frame, error) {
	for {
		if snap := s.latest.Load(); snap != nil && snap.Sequence > s.lastRead {
			s.lastRead = snap.Sequence
			return snap.Image, nil
		}
		select {
		case <-s.notify:
		case <-s.stop:
			return nil, ErrClosed
		}
	}
}

func (s *ScreenSource) Stats() Stats {
	return buildStats(s.captures.Load(), s.skipped.Load(), s.captureNanos.Load(), s.LatestFrame())
}

func (s *ScreenSource) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	for {
		s.captureOnce()
		select {
		case <-s.stop:
			return
		case <-logTicker.C:
			s.logStats()
		case <-ticker.C:
		}
	}
}

func (s *ScreenSource) captureOnce() {
	start := time.Now()
	img, err := s.grab(s.rect)
	if err != nil || img == nil {
		s.skipped.Add(1)
		if err != nil && s.logger != nil {
			s.logger.Error("capture screen", "error", err)
		}
		return
	}
	if off := img.Rect.Min; off != (image.Point{}) {
		img.Rect = img.Rect.Sub(off)
	}
	s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.captures.Add(1)
	seq := s.sequence.Add(1)
	s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *ScreenSource) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"avg_us", stats.AvgCaptureMicros,
		"frame_age", stats.LatestFrameAge.String(),
	)
}

// Close stops the capture goroutine and unblocks Read.
func (s *ScreenSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}
