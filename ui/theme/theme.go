// Package theme activates the Tk theme and configures the semantic widget
// styles used by the tracker window.
package theme

import (
	"github.com/soocke/turret-tracker/domain/tracking"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, cards
	ColorPrimary   = "#2563eb" // buttons, accents
	ColorDanger    = "#dc2626"
	ColorAccent    = "#10b981"
	ColorWarn      = "#d97706"
	ColorMuted     = "#64748b"
	ColorText      = "#1e293b"
	darkBg         = "#0f172a"
	darkSurface    = "#1e293b"
	darkPrimary    = "#3b82f6"
	darkDanger     = "#ef4444"
	darkForeground = "#f1f5f9"
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StyleIdleLabel     = "idle.TLabel"
	StyleTrackingLabel = "tracking.TLabel"
	StyleLostLabel     = "lost.TLabel"
	StyleSelectLabel   = "selecting.TLabel"
)

var darkMode bool

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(darkMode) }

// SetDark toggles dark mode and reapplies styles. Returns new mode value.
func SetDark(dark bool) bool {
	darkMode = dark
	applyStyles(darkMode)
	return darkMode
}

// ToggleDark flips dark mode and reapplies styles.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports current mode.
func IsDark() bool { return darkMode }

// StateStyle returns the label style for a controller state.
func StateStyle(s tracking.State) string {
	switch s {
	case tracking.StateTracking:
		return StyleTrackingLabel
	case tracking.StateLost, tracking.StateTerminal:
		return StyleLostLabel
	case tracking.StateSelecting:
		return StyleSelectLabel
	default:
		return StyleIdleLabel
	}
}

func pick(dark bool, light, darkColor string) string {
	if dark {
		return darkColor
	}
	return light
}

func applyStyles(dark bool) {
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(pick(dark, ColorBg, darkBg)))

	StyleConfigure(StylePrimaryButton,
		Background(pick(dark, ColorPrimary, darkPrimary)),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleDangerButton,
		Background(pick(dark, ColorDanger, darkDanger)),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleAccentLabel,
		Foreground(pick(dark, ColorPrimary, darkPrimary)),
		Background(pick(dark, ColorSurface, darkSurface)),
		Padding("2p 1p"),
	)
	stateLabel := func(name, bg string) {
		StyleConfigure(name,
			Foreground(pick(dark, "white", darkForeground)),
			Background(bg),
			Padding("4p 2p"),
			Borderwidth(1),
			Relief("groove"),
		)
	}
	stateLabel(StyleIdleLabel, ColorMuted)
	stateLabel(StyleTrackingLabel, ColorAccent)
	stateLabel(StyleLostLabel, pick(dark, ColorDanger, darkDanger))
	stateLabel(StyleSelectLabel, ColorWarn)
}
