package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/soocke/turret-tracker/config"
	"github.com/soocke/turret-tracker/debug"
	"github.com/soocke/turret-tracker/domain/actuator"
	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/telemetry"
)

// Container owns the collaborators shared by every front end: the actuator
// link, the optional telemetry hub and the debug loggers.
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	Device    string
	Link      actuator.Writer
	Telemetry *telemetry.Hub
}

// BuildContainer opens the actuator link and, when configured, starts the
// telemetry server and debug loggers. A nil ports uses the real serial
// factory. On error nothing stays open.
func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, ports actuator.PortFactory) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Device: cfg.SerialDevice}
	if c.Device == "" && !cfg.ActuatorDisabled {
		available, err := actuator.ListPorts()
		if err != nil && logger != nil {
			logger.Warn("serial port enumeration failed", "error", err)
		}
		c.Device = actuator.DefaultDevice(runtime.GOOS, available)
	}
	link, err := actuator.Open(ports, c.Device, cfg.PortOptions(), cfg.ActuatorDisabled, logger)
	if err != nil {
		return nil, fmt.Errorf("open actuator %q: %w", c.Device, err)
	}
	c.Link = link
	if cfg.TelemetryAddr != "" {
		hub := telemetry.NewHub(logger)
		if err := hub.Start(cfg.TelemetryAddr); err != nil {
			_ = link.Close()
			return nil, fmt.Errorf("start telemetry on %s: %w", cfg.TelemetryAddr, err)
		}
		c.Telemetry = hub
	}
	if cfg.Debug {
		debug.StartRuntimeLogger(ctx, 5*time.Second, logger)
		debug.StartMemLogger(ctx, 10*time.Second, logger)
	}
	return c, nil
}

// NewController builds the controller. Resources are released in reverse
// order: extra closers first, then telemetry, the link and finally source.
func (c *Container) NewController(width, height int, trackers tracking.TrackerFactory, selector tracking.Selector, source io.Closer, extra ...io.Closer) *tracking.Controller {
	var resources []io.Closer
	add := func(cl io.Closer) {
		if cl != nil {
			resources = append(resources, cl)
		}
	}
	add(source)
	add(c.Link)
	if c.Telemetry != nil {
		add(c.Telemetry)
	}
	for _, cl := range extra {
		add(cl)
	}
	var keys tracking.KeyBindings
	if c.Config != nil {
		keys = c.Config.KeyBindings()
	}
	return tracking.NewController(width, height, tracking.Deps{
		Logger:    c.Logger,
		Trackers:  trackers,
		Selector:  selector,
		Link:      c.Link,
		Keys:      keys,
		Resources: resources,
	})
}

// Presenters appends the telemetry hub, when running, to ps.
func (c *Container) Presenters(ps ...Presenter) []Presenter {
	if c.Telemetry != nil {
		ps = append(ps, c.Telemetry)
	}
	return ps
}

// Poller merges p with remote telemetry commands.
func (c *Container) Poller(p CommandPoller) CommandPoller {
	if c.Telemetry == nil {
		return p
	}
	return MergePollers(p, c.Telemetry)
}

// Close releases what BuildContainer opened. Use it only when no controller
// was built; a controller owns these resources once created.
func (c *Container) Close() error {
	var errs []error
	if c.Telemetry != nil {
		errs = append(errs, c.Telemetry.Close())
	}
	if c.Link != nil {
		errs = append(errs, c.Link.Close())
	}
	return errors.Join(errs...)
}
