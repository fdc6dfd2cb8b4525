package opencv

import (
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/overlay"
)

// DefaultWindowName is the title of the preview window.
const DefaultWindowName = "Webcam Feed"

// Window shows annotated frames and polls the keyboard. gocv windows must be
// driven from the goroutine that created them.
type Window struct {
	name      string
	win       *gocv.Window
	keys      tracking.KeyBindings
	waitMs    int
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewWindow opens the preview window. waitMs is the keyboard poll interval
// that also paces the loop.
func NewWindow(name string, keys tracking.KeyBindings, waitMs int, logger *slog.Logger) *Window {
	if name == "" {
		name = DefaultWindowName
	}
	if waitMs <= 0 {
		waitMs = 5
	}
	return &Window{name: name, win: gocv.NewWindow(name), keys: keys, waitMs: waitMs, logger: logger}
}

// Name returns the window title, which the ROI selector reuses.
func (w *Window) Name() string { return w.name }

// Poll waits up to the poll interval for a key and maps it to a command.
func (w *Window) Poll() tracking.Command {
	key := w.win.WaitKey(w.waitMs)
	if key >= 0 {
		key &= 0xFF
	}
	return w.keys.CommandForKey(key)
}

// Present draws the overlay for m onto frame and shows it. Frames that are not
// Mats are ignored. Once terminal the camera Mat has been released and is not
// touched.
func (w *Window) Present(frame tracking.Frame, m tracking.RenderModel) {
	if m.State == tracking.StateTerminal {
		return
	}
	mat, err := asMat(frame)
	if err != nil {
		return
	}
	drawOverlay(mat, overlay.Build(m, mat.Cols(), mat.Rows()))
	w.win.IMShow(*mat)
}

// Close destroys the window once.
func (w *Window) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.win.Close()
		if w.logger != nil {
			w.logger.Debug("preview window closed", "name", w.name)
		}
	})
	return err
}
