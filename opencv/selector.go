package opencv

import (
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/overlay"
)

// ROISelector lets the user drag a rectangle with OpenCV's selectROI. It
// blocks until the user confirms with SPACE/ENTER or cancels with c.
type ROISelector struct {
	window string
	logger *slog.Logger
}

var _ tracking.Selector = (*ROISelector)(nil)

// NewROISelector selects on the named window.
func NewROISelector(window string, logger *slog.Logger) *ROISelector {
	return &ROISelector{window: window, logger: logger}
}

// Select shows frame with selection instructions and waits for the user. The
// frame itself is left untouched so the tracker initialises on clean pixels.
func (s *ROISelector) Select(frame tracking.Frame) (tracking.Region, tracking.SelectionStatus) {
	mat, err := asMat(frame)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("roi selection skipped", "error", err)
		}
		return tracking.Region{}, tracking.SelectionCancelled
	}
	view := mat.Clone()
	defer view.Close()
	hints := tracking.RenderModel{
		State: tracking.StateSelecting,
		Hints: []tracking.Hint{tracking.HintConfirm, tracking.HintCancel},
	}
	o := overlay.Build(hints, view.Cols(), view.Rows())
	o.Segments = nil
	drawOverlay(&view, o)
	r := gocv.SelectROI(s.window, view)
	region := tracking.RegionFromRect(r)
	if region.Degenerate() {
		return tracking.Region{}, tracking.SelectionCancelled
	}
	return region, tracking.SelectionConfirmed
}
