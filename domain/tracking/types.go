package tracking

import (
	"errors"
	"fmt"
	"image"
)

// Frame is an opaque handle to one captured video frame. Only the collaborators
// of the backend that produced it (tracker, selector, presenter) look inside.
type Frame any

// Region is an axis-aligned rectangle in frame pixel coordinates. The zero
// value is the sentinel meaning "no active region".
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionFromRect converts an image rectangle into a Region.
func RegionFromRect(r image.Rectangle) Region {
	r = r.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// IsSentinel reports whether r is the all-zero "no region" value.
func (r Region) IsSentinel() bool { return r == Region{} }

// Degenerate reports whether r cannot seed a tracker: the sentinel, or any
// region without a positive area.
func (r Region) Degenerate() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the top-left-biased center (x + width/2, y + height/2).
func (r Region) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Rect returns r as an image rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X, r.Y, r.Width, r.Height)
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Offset is the signed displacement of the tracked center from the frame center.
// Positive DX means right of center, positive DY means below center.
type Offset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// FrameCenter returns the optical center for the given frame dimensions.
func FrameCenter(width, height int) Point {
	return Point{X: width / 2, Y: height / 2}
}

// CalculateOffset returns regionCenter - frameCenter on both axes.
func CalculateOffset(regionCenter, frameCenter Point) Offset {
	return Offset{DX: regionCenter.X - frameCenter.X, DY: regionCenter.Y - frameCenter.Y}
}

// State enumerates the tracker lifecycle states.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateTracking
	StateLost
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateTracking:
		return "tracking"
	case StateLost:
		return "lost"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name so telemetry consumers see "tracking"
// rather than an ordinal.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Command is the discrete user input consumed by one tick.
type Command int

const (
	CommandNone Command = iota
	CommandSelect
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandSelect:
		return "select"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// KeyBindings maps keyboard keys onto commands.
type KeyBindings struct {
	Select rune
	Quit   rune
}

// DefaultKeyBindings returns k to select and q to quit.
func DefaultKeyBindings() KeyBindings { return KeyBindings{Select: 'k', Quit: 'q'} }

// CommandForKey translates a polled key code. Negative codes (no key) and
// unbound keys yield CommandNone.
func (b KeyBindings) CommandForKey(key int) Command {
	if key < 0 {
		return CommandNone
	}
	switch rune(key) {
	case b.Quit:
		return CommandQuit
	case b.Select:
		return CommandSelect
	}
	return CommandNone
}

// Hint is an instructional text key emitted for the presentation layer.
type Hint string

const (
	HintSelect  Hint = "select"
	HintQuit    Hint = "quit"
	HintConfirm Hint = "confirm"
	HintCancel  Hint = "cancel"
)

// Text returns the English instruction for h with the default keys.
func (h Hint) Text() string { return h.Format(DefaultKeyBindings()) }

// Format returns the English instruction for h naming the keys in b. Unset
// bindings fall back to the defaults. The selection keys belong to the
// selector and are fixed.
func (h Hint) Format(b KeyBindings) string {
	def := DefaultKeyBindings()
	if b.Select == 0 {
		b.Select = def.Select
	}
	if b.Quit == 0 {
		b.Quit = def.Quit
	}
	switch h {
	case HintSelect:
		return fmt.Sprintf("Press %c to select object to track!", b.Select)
	case HintQuit:
		return fmt.Sprintf("Press %c to exit!", b.Quit)
	case HintConfirm:
		return "Select an object to track and then press SPACE to confirm!"
	case HintCancel:
		return "Press c to cancel!"
	default:
		return string(h)
	}
}

// RenderModel is everything the presentation layer needs for one tick.
// Region and Offset are nil while no region is active.
type RenderModel struct {
	State       State   `json:"state"`
	Region      *Region `json:"region,omitempty"`
	Offset      *Offset `json:"offset,omitempty"`
	FrameCenter Point   `json:"frame_center"`
	Hints       []Hint  `json:"hints,omitempty"`
	Session     string  `json:"session,omitempty"`
	Transmitted bool    `json:"transmitted"`
	// Keys are the bindings the hints refer to.
	Keys KeyBindings `json:"-"`
}

// SelectionStatus is the outcome of polling the selection collaborator.
type SelectionStatus int

const (
	// SelectionPending means the user has not finished; poll again next tick.
	SelectionPending SelectionStatus = iota
	SelectionConfirmed
	SelectionCancelled
)

func (s SelectionStatus) String() string {
	switch s {
	case SelectionPending:
		return "pending"
	case SelectionConfirmed:
		return "confirmed"
	case SelectionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Tracker is one instance of a visual tracking algorithm. It is not
// recoverable: after Update reports false the instance must be discarded.
type Tracker interface {
	Init(frame Frame, region Region) error
	Update(frame Frame) (Region, bool)
	Close() error
}

// TrackerFactory builds a fresh tracker for every session.
type TrackerFactory func() (Tracker, error)

// Selector asks the user for an initial region. Blocking implementations never
// return SelectionPending.
type Selector interface {
	Select(frame Frame) (Region, SelectionStatus)
}

// SelectionAborter is implemented by selectors that keep UI open across
// ticks. Abort is called when the controller leaves StateSelecting before the
// selector reported a result; any later confirm or cancel is discarded.
type SelectionAborter interface {
	Abort()
}

// Transmitter is the write side of the actuator link. Implementations must not
// block; a write that cannot complete immediately returns an error.
type Transmitter interface {
	Write(p []byte) (int, error)
}

var (
	ErrSessionInitialized = errors.New("tracking: session already initialized")
	ErrDegenerateRegion   = errors.New("tracking: degenerate region")
)
