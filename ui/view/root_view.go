package view

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/turret-tracker/config"
	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level layout: state and offset labels, command
// buttons, the tracker parameter panel and the frame preview.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	Session     SessionStats
	ConfigPanel ConfigPanel
	Preview     FramePreview

	StateLabel  *TLabelWidget
	OffsetLabel *LabelWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout. onSelect and onQuit are wired to the buttons
// and to the configured keys.
func (rv *RootView) Build(onSelect, onQuit func()) {
	if rv == nil {
		return
	}
	// Row 0: session stats
	rv.Session = NewSessionStats(0, 0)

	// Row 1: state, offset, buttons
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleIdleLabel))
	Grid(rv.StateLabel, Row(1), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.OffsetLabel = Label(Txt("Offset: -"), Borderwidth(1), Relief("ridge"), Width(28))
	Grid(rv.OffsetLabel, Row(1), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(1), Column(4), Rowspan(2), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	sel, quit := 'k', 'q'
	if rv.cfg != nil {
		sel, quit = rv.cfg.Keys()
	}
	selectBtn := TButton(Txt(fmt.Sprintf("Select [%c]", sel)), Style(theme.StylePrimaryButton), Command(onSelect))
	Grid(selectBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	darkBtn := Button(Txt("Dark Mode"), Command(func() { theme.ToggleDark() }))
	Grid(darkBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	quitBtn := TButton(Txt(fmt.Sprintf("Quit [%c]", quit)), Style(theme.StyleDangerButton), Command(onQuit))
	Grid(quitBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(App, fmt.Sprintf("<KeyPress-%c>", sel), Command(onSelect))
	Bind(App, fmt.Sprintf("<KeyPress-%c>", quit), Command(onQuit))

	// Tracker parameters
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	end := rv.ConfigPanel.Build(2)

	rv.Preview = NewFramePreview(end)
}

func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetStateStyle(s tracking.State) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Style(theme.StateStyle(s)))
	}
}

func (rv *RootView) SetOffsetLabel(text string) {
	if rv != nil && rv.OffsetLabel != nil {
		rv.OffsetLabel.Configure(Txt(text))
	}
}

func (rv *RootView) UpdatePreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdatePreview(img)
	}
}

func (rv *RootView) UpdateTarget(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdateTarget(img)
	}
}

func (rv *RootView) SetSession(session, total time.Duration) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSession(session, total)
	}
}

func (rv *RootView) SetStats(text string) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetStats(text)
	}
}
