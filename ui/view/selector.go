package view

import (
	"image"
	"log/slog"

	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/overlay"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

const selectionKey = "#008080"

// ScreenSelector lets the user drag and resize a see-through window over the
// captured area. It never blocks: Select opens the window and reports
// SelectionPending until the user confirms or cancels.
type ScreenSelector struct {
	logger *slog.Logger
	origin image.Point
	width  int
	height int
	win    *ToplevelWidget
	done   bool
	result tracking.Region
	status tracking.SelectionStatus
}

var (
	_ tracking.Selector         = (*ScreenSelector)(nil)
	_ tracking.SelectionAborter = (*ScreenSelector)(nil)
)

// NewScreenSelector selects within screen, the captured rectangle in screen
// coordinates.
func NewScreenSelector(screen image.Rectangle, logger *slog.Logger) *ScreenSelector {
	return &ScreenSelector{logger: logger, origin: screen.Min, width: screen.Dx(), height: screen.Dy()}
}

// Select implements tracking.Selector.
func (v *ScreenSelector) Select(tracking.Frame) (tracking.Region, tracking.SelectionStatus) {
	if v.done {
		v.done = false
		return v.result, v.status
	}
	if v.win == nil {
		v.open()
	}
	return tracking.Region{}, tracking.SelectionPending
}

// Abort closes an open selection window and forgets any unread result.
func (v *ScreenSelector) Abort() {
	v.closeWindow()
	v.done = false
	v.result, v.status = tracking.Region{}, tracking.SelectionPending
}

func (v *ScreenSelector) open() {
	win := App.Toplevel(Borderwidth(2), Background(selectionKey))
	win.WmTitle("Select Target")
	v.win = win
	WmGeometry(win.Window, overlay.FormatGeometry(overlay.InitialSelection(v.origin, v.width, v.height)))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.5)
	WmAttributes(win.Window, "-transparentcolor", selectionKey)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FF0000"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background(selectionKey))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FF0000"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Track [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<space>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
	Bind(win, "<KeyPress-c>", Command(v.cancel))
	WmProtocol(win.Window, "WM_DELETE_WINDOW", v.cancel)
}

// confirm takes the toplevel's screen geometry as the selection.
func (v *ScreenSelector) confirm() {
	if v.win == nil {
		return
	}
	rect, ok := overlay.ParseGeometry(WmGeometry(v.win.Window))
	if !ok {
		v.finish(tracking.Region{}, tracking.SelectionCancelled)
		return
	}
	region := overlay.ScreenToFrame(rect, v.origin, v.width, v.height)
	if region.Degenerate() {
		v.finish(region, tracking.SelectionCancelled)
		return
	}
	v.finish(region, tracking.SelectionConfirmed)
}

func (v *ScreenSelector) cancel() { v.finish(tracking.Region{}, tracking.SelectionCancelled) }

func (v *ScreenSelector) finish(r tracking.Region, status tracking.SelectionStatus) {
	if v.logger != nil {
		v.logger.Info("selection finished", "status", status.String(), "region", r.String())
	}
	v.result, v.status, v.done = r, status, true
	v.closeWindow()
}

func (v *ScreenSelector) closeWindow() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}
