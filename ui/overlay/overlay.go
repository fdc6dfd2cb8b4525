// Package overlay computes the annotations drawn over a frame for a render
// model. Renderers only translate the primitives into draw calls.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// Color names an overlay color; renderers map it to their own color type.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Yellow
)

// Size classes for text.
const (
	TextSmall = 0.5
	TextLarge = 0.75
)

// Box is an outlined rectangle.
type Box struct {
	Rect      image.Rectangle
	Color     Color
	Thickness int
}

// Segment is a straight line.
type Segment struct {
	From, To  image.Point
	Color     Color
	Thickness int
}

// Text is a label anchored at its baseline origin.
type Text struct {
	Text      string
	Origin    image.Point
	Color     Color
	Scale     float64
	Thickness int
}

// Overlay is the full set of primitives for one frame.
type Overlay struct {
	Boxes    []Box
	Segments []Segment
	Texts    []Text
}

// Build lays out the overlay for m on a frame of the given size.
func Build(m tracking.RenderModel, width, height int) Overlay {
	var o Overlay
	if m.Region != nil && m.State == tracking.StateTracking {
		r := *m.Region
		c := r.Center()
		o.Boxes = append(o.Boxes, Box{Rect: r.Rect(), Color: Red, Thickness: 3})
		o.Segments = append(o.Segments,
			Segment{From: image.Pt(c.X, r.Y+r.Height/3), To: image.Pt(c.X, r.Y+r.Height-r.Height/3), Color: Blue, Thickness: 2},
			Segment{From: image.Pt(r.X+r.Width/3, c.Y), To: image.Pt(r.X+r.Width-r.Width/3, c.Y), Color: Blue, Thickness: 2},
		)
		if m.Offset != nil {
			o.Texts = append(o.Texts,
				Text{Text: fmt.Sprintf("Horizontal Error: %d", m.Offset.DX), Origin: image.Pt(3, height-3), Color: Blue, Scale: TextLarge, Thickness: 2},
				Text{Text: fmt.Sprintf("Vertical Error: %d", m.Offset.DY), Origin: image.Pt(3, height-18), Color: Blue, Scale: TextLarge, Thickness: 2},
			)
		}
	}
	for i, h := range m.Hints {
		o.Texts = append(o.Texts, Text{Text: h.Format(m.Keys), Origin: image.Pt(3, 15*(i+1)), Color: Yellow, Scale: TextSmall, Thickness: 1})
	}
	if m.State != tracking.StateTerminal {
		fc := m.FrameCenter
		o.Segments = append(o.Segments,
			Segment{From: image.Pt(fc.X, height/3), To: image.Pt(fc.X, height-height/3), Color: Green, Thickness: 2},
			Segment{From: image.Pt(width/3, fc.Y), To: image.Pt(width-width/3, fc.Y), Color: Green, Thickness: 2},
		)
	}
	return o
}

// RGBA returns the display color for c.
func (c Color) RGBA() color.RGBA {
	switch c {
	case Red:
		return color.RGBA{R: 255, A: 255}
	case Green:
		return color.RGBA{G: 255, A: 255}
	case Blue:
		return color.RGBA{B: 255, A: 255}
	case Yellow:
		return color.RGBA{R: 255, G: 255, A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
}
