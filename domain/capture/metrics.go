package capture

import (
	"image"
	"time"
)

// FrameSnapshot carries one captured frame and its metadata.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Stats summarises source behaviour for instrumentation.
type Stats struct {
	Captures         uint64
	Skipped          uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
	LatestFrameAge   time.Duration
	Sequence         uint64
}

func buildStats(captures, skipped, totalNanos uint64, latest FrameSnapshot) Stats {
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && totalNanos > 0 {
		avg = time.Duration(totalNanos / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	age := time.Duration(0)
	if !latest.CapturedAt.IsZero() {
		age = time.Since(latest.CapturedAt)
	}
	return Stats{
		Captures:         captures,
		Skipped:          skipped,
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      latest.CapturedAt,
		LatestFrameAge:   age,
		Sequence:         latest.Sequence,
	}
}
