// Package capture provides frame sources that deliver *image.RGBA frames to
// the tracking loop: live screen capture and replay of recorded frames.
package capture

import (
	"errors"
	"image"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// ErrEndOfStream is returned by Read once a finite source is exhausted.
var ErrEndOfStream = errors.New("capture: end of stream")

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("capture: source closed")

// Source is a blocking frame provider. Read waits until a frame newer than
// the previous one is available.
type Source interface {
	Read() (tracking.Frame, error)
	Bounds() image.Rectangle
	Stats() Stats
	Close() error
}

// LatestProvider exposes the most recent frame without consuming it.
type LatestProvider interface {
	LatestFrame() FrameSnapshot
}
