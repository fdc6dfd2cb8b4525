package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// GrabFunc captures the given screen rectangle.
type GrabFunc func(image.Rectangle) (*image.RGBA, error)

// ScreenBounds returns the bounds of the primary display.
func ScreenBounds() (image.Rectangle, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("capture: screen rect: %w", err)
	}
	return r, nil
}

// GrabRect captures r clipped to the primary display.
func GrabRect(r image.Rectangle) (*image.RGBA, error) {
	screen, err := ScreenBounds()
	if err != nil {
		return nil, err
	}
	clip := r.Intersect(screen)
	if clip.Empty() {
		return nil, fmt.Errorf("capture: rect out of bounds rect=%v screen=%v", r, screen)
	}
	img, err := screenshot.CaptureRect(clip)
	if err != nil {
		return nil, err
	}
	return img, nil
}
