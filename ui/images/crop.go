package images

import (
	"errors"
	"image"
	"image/draw"

	"github.com/soocke/turret-tracker/domain/tracking"
)

var errNilFrame = errors.New("nil frame")

// CropRegion copies region r out of frame. The region is clamped to the frame
// and the result is never smaller than 1x1. The returned rectangle is the
// clamped area in frame coordinates.
func CropRegion(frame image.Image, r tracking.Region) (*image.RGBA, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errNilFrame
	}
	b := frame.Bounds()
	rect := r.Rect().Add(b.Min).Intersect(b)
	if rect.Empty() {
		// keep a 1x1 sample at the nearest in-bounds corner
		x := clamp(b.Min.X+r.X, b.Min.X, b.Max.X-1)
		y := clamp(b.Min.Y+r.Y, b.Min.Y, b.Max.Y-1)
		rect = image.Rect(x, y, x+1, y+1)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), frame, rect.Min, draw.Src)
	return out, rect.Sub(b.Min), nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
