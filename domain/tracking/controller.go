package tracking

import (
	"errors"
	"io"
	"log/slog"

	"github.com/soocke/turret-tracker/domain/actuator"
)

// Stats counts controller activity since construction.
type Stats struct {
	Ticks         uint64
	Transmissions uint64
	Dropped       uint64
	WriteErrors   uint64
	Sessions      uint64
	Lost          uint64
}

// Deps are the collaborators a Controller drives. Every field except Trackers
// may be nil.
type Deps struct {
	Logger   *slog.Logger
	Trackers TrackerFactory
	Selector Selector
	Link     Transmitter
	// Encode converts dx into the bytes written to Link. Defaults to
	// actuator.Encode.
	Encode func(dx int) []byte
	// Keys are echoed in every RenderModel for the hints. Defaults to
	// DefaultKeyBindings.
	Keys KeyBindings
	// Resources are released exactly once, in reverse order, when the
	// controller terminates or is closed.
	Resources []io.Closer
}

// Controller is the tracking state machine. It is driven by one goroutine
// calling Tick once per frame and is not safe for concurrent use.
type Controller struct {
	logger     *slog.Logger
	state      State
	width      int
	height     int
	center     Point
	session    *Session
	region     Region
	offset     *Offset
	newTracker TrackerFactory
	selector   Selector
	link       Transmitter
	encode     func(int) []byte
	keys       KeyBindings
	resources  []io.Closer
	released   bool
	summary    offsetSummary
	stats      Stats
}

// NewController returns a controller in StateIdle for frames of the given size.
func NewController(width, height int, deps Deps) *Controller {
	c := &Controller{
		logger:     deps.Logger,
		state:      StateIdle,
		width:      width,
		height:     height,
		center:     FrameCenter(width, height),
		newTracker: deps.Trackers,
		selector:   deps.Selector,
		link:       deps.Link,
		encode:     deps.Encode,
		keys:       deps.Keys,
		resources:  deps.Resources,
	}
	if c.encode == nil {
		c.encode = actuator.Encode
	}
	if c.keys == (KeyBindings{}) {
		c.keys = DefaultKeyBindings()
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// FrameCenter returns the center used for offset calculation.
func (c *Controller) FrameCenter() Point { return c.center }

// Stats returns a copy of the activity counters.
func (c *Controller) Stats() Stats { return c.stats }

// Tick advances the machine by one frame. Quit takes precedence over any other
// processing and never transmits.
func (c *Controller) Tick(frame Frame, cmd Command) RenderModel {
	c.stats.Ticks++
	if c.state == StateTerminal {
		return c.model(false)
	}
	if cmd == CommandQuit {
		c.terminate()
		return c.model(false)
	}
	if c.state == StateLost {
		c.transition(StateIdle)
	}
	sent := false
	switch c.state {
	case StateIdle:
		if cmd == CommandSelect {
			c.transition(StateSelecting)
			sent = c.pollSelection(frame)
		}
	case StateSelecting:
		sent = c.pollSelection(frame)
	case StateTracking:
		if cmd == CommandSelect {
			c.endSession("reselect")
			c.transition(StateSelecting)
			sent = c.pollSelection(frame)
		} else {
			sent = c.track(frame)
		}
	}
	return c.model(sent)
}

// Reconfigure adopts new frame dimensions. Any active session is discarded
// because its region no longer refers to the same coordinate space.
func (c *Controller) Reconfigure(width, height int) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	c.center = FrameCenter(width, height)
	if c.state == StateTerminal {
		return
	}
	c.abortSelection()
	c.endSession("reconfigure")
	c.transition(StateIdle)
	if c.logger != nil {
		c.logger.Info("frame size changed", "width", width, "height", height)
	}
}

// Close releases the active session and every registered resource. Only the
// first call has any effect.
func (c *Controller) Close() error {
	if c.released {
		return nil
	}
	c.released = true
	c.endSession("close")
	var errs []error
	for i := len(c.resources) - 1; i >= 0; i-- {
		if c.resources[i] == nil {
			continue
		}
		if err := c.resources[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.resources = nil
	err := errors.Join(errs...)
	if err != nil && c.logger != nil {
		c.logger.Warn("resource release failed", "error", err)
	}
	return err
}

func (c *Controller) terminate() {
	c.abortSelection()
	c.transition(StateTerminal)
	_ = c.Close()
	if c.logger != nil {
		c.logger.Info("tracker terminated",
			"ticks", c.stats.Ticks,
			"transmissions", c.stats.Transmissions,
			"dropped", c.stats.Dropped,
			"sessions", c.stats.Sessions,
		)
	}
}

func (c *Controller) abortSelection() {
	if c.state != StateSelecting {
		return
	}
	if a, ok := c.selector.(SelectionAborter); ok {
		a.Abort()
	}
}

func (c *Controller) pollSelection(frame Frame) bool {
	if c.selector == nil {
		c.transition(StateIdle)
		return false
	}
	region, status := c.selector.Select(frame)
	switch status {
	case SelectionPending:
		return false
	case SelectionCancelled:
		if c.logger != nil {
			c.logger.Info("selection cancelled")
		}
		c.transition(StateIdle)
		return false
	}
	if region.Degenerate() {
		if c.logger != nil {
			c.logger.Info("selection rejected", "region", region.String())
		}
		c.transition(StateIdle)
		return false
	}
	if !c.startSession(frame, region) {
		c.transition(StateIdle)
		return false
	}
	c.transition(StateTracking)
	return c.emit()
}

func (c *Controller) startSession(frame Frame, region Region) bool {
	if c.newTracker == nil {
		if c.logger != nil {
			c.logger.Error("no tracker factory configured")
		}
		return false
	}
	tr, err := c.newTracker()
	if err != nil {
		if c.logger != nil {
			c.logger.Error("tracker create failed", "error", err)
		}
		return false
	}
	s := NewSession(tr)
	if err := s.Init(frame, region); err != nil {
		_ = s.Close()
		if c.logger != nil {
			c.logger.Warn("tracker init failed", "region", region.String(), "error", err)
		}
		return false
	}
	c.session = s
	c.region = region
	c.summary.reset()
	c.stats.Sessions++
	if c.logger != nil {
		c.logger.Info("tracking started", "session", s.ID(), "region", region.String())
	}
	return true
}

func (c *Controller) track(frame Frame) bool {
	if c.session == nil {
		c.transition(StateIdle)
		return false
	}
	res := c.session.Update(frame)
	if !res.OK {
		c.stats.Lost++
		c.endSession("lost")
		c.transition(StateLost)
		return false
	}
	c.region = res.Region
	return c.emit()
}

func (c *Controller) emit() bool {
	off := CalculateOffset(c.region.Center(), c.center)
	c.offset = &off
	c.summary.add(off)
	return c.transmit(off.DX)
}

func (c *Controller) transmit(dx int) bool {
	if c.link == nil {
		return false
	}
	if _, err := c.link.Write(c.encode(dx)); err != nil {
		if errors.Is(err, actuator.ErrWouldBlock) {
			c.stats.Dropped++
			if c.logger != nil {
				c.logger.Debug("control signal dropped", "dx", dx)
			}
			return false
		}
		c.stats.WriteErrors++
		if c.logger != nil {
			c.logger.Warn("control signal write failed", "dx", dx, "error", err)
		}
		return false
	}
	c.stats.Transmissions++
	return true
}

func (c *Controller) endSession(reason string) {
	c.region = Region{}
	c.offset = nil
	if c.session == nil {
		return
	}
	s := c.session
	c.session = nil
	if err := s.Close(); err != nil && c.logger != nil {
		c.logger.Warn("tracker release failed", "session", s.ID(), "error", err)
	}
	if c.logger != nil {
		st := c.summary.stats()
		c.logger.Info("tracking ended",
			"session", s.ID(),
			"reason", reason,
			"frames", s.Frames(),
			"age", s.Age().String(),
			"mean_dx", st.MeanDX,
			"std_dx", st.StdDX,
			"mean_dy", st.MeanDY,
			"std_dy", st.StdDY,
			"max_abs_dx", st.MaxAbs,
		)
	}
	c.summary.reset()
}

func (c *Controller) transition(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	if c.logger != nil {
		c.logger.Debug("tracking state transition", "from", prev.String(), "to", next.String())
	}
}

func (c *Controller) model(sent bool) RenderModel {
	m := RenderModel{
		State:       c.state,
		FrameCenter: c.center,
		Hints:       hintsFor(c.state),
		Transmitted: sent,
		Keys:        c.keys,
	}
	if c.state == StateTracking && !c.region.IsSentinel() {
		r := c.region
		m.Region = &r
		if c.offset != nil {
			o := *c.offset
			m.Offset = &o
		}
		if c.session != nil {
			m.Session = c.session.ID()
		}
	}
	return m
}

func hintsFor(s State) []Hint {
	switch s {
	case StateSelecting:
		return []Hint{HintConfirm, HintCancel}
	case StateTerminal:
		return nil
	default:
		return []Hint{HintSelect, HintQuit}
	}
}
