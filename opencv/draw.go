package opencv

import (
	"gocv.io/x/gocv"

	"github.com/soocke/turret-tracker/ui/overlay"
)

// drawOverlay renders o onto mat in place.
func drawOverlay(mat *gocv.Mat, o overlay.Overlay) {
	for _, b := range o.Boxes {
		gocv.Rectangle(mat, b.Rect, b.Color.RGBA(), b.Thickness)
	}
	for _, s := range o.Segments {
		gocv.Line(mat, s.From, s.To, s.Color.RGBA(), s.Thickness)
	}
	for _, t := range o.Texts {
		gocv.PutText(mat, t.Text, t.Origin, gocv.FontHersheySimplex, t.Scale, t.Color.RGBA(), t.Thickness)
	}
}
