package images

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/turret-tracker/ui/overlay"
)

// RenderOverlay copies frame into a new RGBA image and draws ov on top.
func RenderOverlay(frame image.Image, ov overlay.Overlay) *image.RGBA {
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)
	for _, box := range ov.Boxes {
		strokeRect(dst, box.Rect, box.Thickness, box.Color.RGBA())
	}
	for _, s := range ov.Segments {
		strokeSegment(dst, s.From, s.To, s.Thickness, s.Color.RGBA())
	}
	for _, t := range ov.Texts {
		drawText(dst, t)
	}
	return dst
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	t := max(thickness, 1)
	h := t / 2
	fill(dst, image.Rect(r.Min.X-h, r.Min.Y-h, r.Max.X+t-h, r.Min.Y+t-h), c)
	fill(dst, image.Rect(r.Min.X-h, r.Max.Y-h, r.Max.X+t-h, r.Max.Y+t-h), c)
	fill(dst, image.Rect(r.Min.X-h, r.Min.Y-h, r.Min.X+t-h, r.Max.Y+t-h), c)
	fill(dst, image.Rect(r.Max.X-h, r.Min.Y-h, r.Max.X+t-h, r.Max.Y+t-h), c)
}

// Overlay segments are axis aligned; anything else is drawn as its bounding box.
func strokeSegment(dst *image.RGBA, from, to image.Point, thickness int, c color.RGBA) {
	t := max(thickness, 1)
	h := t / 2
	r := image.Rectangle{Min: from, Max: to}.Canon()
	fill(dst, image.Rect(r.Min.X-h, r.Min.Y-h, r.Max.X+t-h, r.Max.Y+t-h), c)
}

func drawText(dst *image.RGBA, t overlay.Text) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(t.Color.RGBA()),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(t.Origin.X, t.Origin.Y),
	}
	d.DrawString(t.Text)
	if t.Scale >= overlay.TextLarge {
		// fake bold for the large size
		d.Dot = fixed.P(t.Origin.X+1, t.Origin.Y)
		d.DrawString(t.Text)
	}
}
