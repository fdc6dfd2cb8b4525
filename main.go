// Command turret-tracker follows a user-selected object in a camera feed and
// streams its horizontal offset to the turret controller over serial.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/soocke/turret-tracker/app"
	"github.com/soocke/turret-tracker/config"
	"github.com/soocke/turret-tracker/domain/actuator"
	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/opencv"
)

const defaultConfigPath = "turret.json"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "turret-tracker:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfgPath := config.PathFromArgs(args, defaultConfigPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	fs := flag.NewFlagSet("turret-tracker", flag.ContinueOnError)
	fs.String("config", defaultConfigPath, "configuration file")
	listPorts := fs.Bool("list-ports", false, "print serial ports and exit")
	save := fs.Bool("save", false, "write the effective configuration back to the config file")
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	_ = cfg.Validate()

	if *listPorts {
		ports, err := actuator.ListPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}
	if *save {
		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	logger := NewLogger(cfg.SlogLevel())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trackers, err := opencv.TrackerFactory(cfg.Tracker, cfg.TrackerOptions(), logger)
	if err != nil {
		return err
	}
	backend := cfg.CameraBackend
	if backend == "" {
		backend = opencv.DefaultBackend(runtime.GOOS)
	}
	cam, err := opencv.OpenCamera(opencv.CameraOptions{
		Device:  cfg.CameraDevice,
		Backend: backend,
		Width:   cfg.FrameWidth,
		Height:  cfg.FrameHeight,
	}, logger)
	if err != nil {
		return err
	}
	c, err := app.BuildContainer(ctx, cfg, logger, nil)
	if err != nil {
		_ = cam.Close()
		return err
	}
	win := opencv.NewWindow(opencv.DefaultWindowName, cfg.KeyBindings(), cfg.PollIntervalMs, logger)
	var selector tracking.Selector = opencv.NewROISelector(win.Name(), logger)
	if r, ok := cfg.Region(); ok {
		selector = app.FixedSelector{Region: r}
	}

	b := cam.Bounds()
	ctrl := c.NewController(b.Dx(), b.Dy(), trackers, selector, cam, win)
	runner := app.NewRunner(ctrl, cam, c.Poller(win), logger, c.Presenters(win)...)
	logger.Info("tracker ready", "tracker", cfg.Tracker, "device", c.Device, "width", b.Dx(), "height", b.Dy())
	return runner.Run(ctx)
}
