package view

import (
	"image"

	"github.com/soocke/turret-tracker/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// FramePreview shows the annotated frame next to a thumbnail of the
// tracked target.
type FramePreview interface {
	UpdatePreview(img image.Image)
	UpdateTarget(img image.Image)
	Reset()
}

type framePreview struct {
	frameLabel  *LabelWidget
	targetLabel *LabelWidget
	maxW, maxH  int
	framePhoto  *Img // last Tk photo for the frame, deleted on replace
	targetPhoto *Img
}

const (
	maxPreviewW = 480
	maxPreviewH = 360
	targetSide  = 120
)

func placeholderPNG(w, h int) []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// NewFramePreview creates the preview labels on the given grid row. The
// frame spans columns 0-3 and the target sits in column 4.
func NewFramePreview(row int) FramePreview {
	fp := NewPhoto(Data(placeholderPNG(maxPreviewW/2, maxPreviewH/2)))
	tp := NewPhoto(Data(placeholderPNG(targetSide, targetSide)))
	frame := Label(Image(fp), Borderwidth(1), Relief("sunken"))
	target := Label(Image(tp), Borderwidth(1), Relief("sunken"))
	Grid(frame, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(target, Row(row), Column(4), Sticky("n"), Padx("0.4m"), Pady("0.4m"))
	return &framePreview{frameLabel: frame, targetLabel: target, maxW: maxPreviewW, maxH: maxPreviewH, framePhoto: fp, targetPhoto: tp}
}

func (v *framePreview) UpdatePreview(img image.Image) {
	if v.frameLabel == nil || img == nil {
		return
	}
	v.framePhoto = replacePhoto(v.frameLabel, v.framePhoto, images.ScaleToFit(img, v.maxW, v.maxH))
}

// UpdateTarget shows img, or the placeholder when img is nil.
func (v *framePreview) UpdateTarget(img image.Image) {
	if v.targetLabel == nil {
		return
	}
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, targetSide, targetSide))
	}
	v.targetPhoto = replacePhoto(v.targetLabel, v.targetPhoto, images.ScaleToFit(img, targetSide, targetSide))
}

func (v *framePreview) Reset() {
	v.UpdatePreview(image.NewRGBA(image.Rect(0, 0, maxPreviewW/2, maxPreviewH/2)))
	v.UpdateTarget(nil)
}

// replacePhoto swaps the label image and deletes the previous photo so Tk
// does not retain obsolete pixel buffers.
func replacePhoto(label *LabelWidget, prev *Img, img image.Image) *Img {
	if prev != nil {
		prev.Delete()
	}
	next := NewPhoto(Data(images.EncodePNG(img)))
	label.Configure(Image(next))
	return next
}
