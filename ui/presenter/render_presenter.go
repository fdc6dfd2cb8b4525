package presenter

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/images"
	"github.com/soocke/turret-tracker/ui/overlay"
)

// FrameView receives the annotated frame and the target thumbnail.
type FrameView interface {
	UpdatePreview(img image.Image)
	UpdateTarget(img image.Image)
}

// StateView sets the status labels in the view.
type StateView interface {
	SetStateLabel(string)
	SetOffsetLabel(string)
}

// StateStyler is implemented by views that color the state label.
type StateStyler interface {
	SetStateStyle(tracking.State)
}

// RenderPresenter turns render models into view updates. Labels are only
// touched when their text changes; the preview is refreshed every
// PreviewEvery frames.
type RenderPresenter struct {
	frames FrameView
	state  StateView
	logger *slog.Logger
	// PreviewEvery throttles preview encoding. Values below 1 mean every frame.
	PreviewEvery int

	count      int
	lastState  string
	lastOffset string
	hadTarget  bool
}

func NewRenderPresenter(frames FrameView, state StateView, logger *slog.Logger) *RenderPresenter {
	return &RenderPresenter{frames: frames, state: state, logger: logger, PreviewEvery: 1}
}

// Present implements app.Presenter.
func (p *RenderPresenter) Present(frame tracking.Frame, m tracking.RenderModel) {
	if p == nil {
		return
	}
	p.updateLabels(m)
	img, ok := frame.(image.Image)
	if !ok || img == nil || p.frames == nil {
		return
	}
	p.count++
	every := max(p.PreviewEvery, 1)
	if m.State == tracking.StateTracking && m.Region != nil {
		if thumb, _, err := images.CropRegion(img, *m.Region); err == nil {
			p.frames.UpdateTarget(thumb)
			p.hadTarget = true
		}
	} else if p.hadTarget {
		p.frames.UpdateTarget(nil)
		p.hadTarget = false
	}
	if (p.count-1)%every != 0 {
		return
	}
	b := img.Bounds()
	p.frames.UpdatePreview(images.RenderOverlay(img, overlay.Build(m, b.Dx(), b.Dy())))
}

func (p *RenderPresenter) updateLabels(m tracking.RenderModel) {
	if p.state == nil {
		return
	}
	st := "State: " + m.State.String()
	if st != p.lastState {
		p.lastState = st
		p.state.SetStateLabel(st)
		if styler, ok := p.state.(StateStyler); ok {
			styler.SetStateStyle(m.State)
		}
		if p.logger != nil {
			p.logger.Debug("state label", "state", m.State.String())
		}
	}
	off := "Offset: -"
	if m.Offset != nil {
		off = fmt.Sprintf("Offset: dx=%d dy=%d", m.Offset.DX, m.Offset.DY)
		if m.Transmitted {
			off += " sent"
		}
	}
	if off != p.lastOffset {
		p.lastOffset = off
		p.state.SetOffsetLabel(off)
	}
}
