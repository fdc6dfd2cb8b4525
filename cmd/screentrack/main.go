// Command screentrack tracks a target on the desktop, or in a directory of
// recorded frames, with the pure-Go NCC tracker and a Tk control window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/soocke/turret-tracker/app"
	"github.com/soocke/turret-tracker/config"
	"github.com/soocke/turret-tracker/domain/capture"
	"github.com/soocke/turret-tracker/domain/tracker"
	"github.com/soocke/turret-tracker/domain/tracking"
	"github.com/soocke/turret-tracker/ui/model"
	"github.com/soocke/turret-tracker/ui/presenter"
	"github.com/soocke/turret-tracker/ui/theme"
	"github.com/soocke/turret-tracker/ui/view"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const defaultConfigPath = "turret.json"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "screentrack:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfgPath := config.PathFromArgs(args, defaultConfigPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	fs := flag.NewFlagSet("screentrack", flag.ContinueOnError)
	fs.String("config", defaultConfigPath, "configuration file")
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	_ = cfg.Validate()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, screen, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	c, err := app.BuildContainer(ctx, cfg, logger, nil)
	if err != nil {
		_ = source.Close()
		return err
	}

	App.WmTitle("Turret Tracker")
	theme.InitStyles()
	queue := app.NewQueuePoller(4)
	rv := view.NewRootView(cfg, cfgPath, logger)
	rv.Build(
		func() { queue.Push(tracking.CommandSelect) },
		func() { queue.Push(tracking.CommandQuit) },
	)
	WmProtocol(App, "WM_DELETE_WINDOW", func() { queue.Push(tracking.CommandQuit) })

	var selector tracking.Selector = view.NewScreenSelector(screen, logger)
	if r, ok := cfg.Region(); ok {
		selector = app.FixedSelector{Region: r}
	}
	// Options are read per session so edits in the parameter panel apply to
	// the next selection.
	trackers := func() (tracking.Tracker, error) {
		return tracker.New(cfg.TrackerOptions(), logger), nil
	}

	b := source.Bounds()
	ctrl := c.NewController(b.Dx(), b.Dy(), trackers, selector, source)
	sessions := presenter.NewSessionPresenter(model.NewSessionModel(), ctrl.Stats, rv)
	render := presenter.NewRenderPresenter(rv, rv, logger)
	render.PreviewEvery = 2
	runner := app.NewRunner(ctrl, source, c.Poller(queue), logger, c.Presenters(render, sessions)...)

	interval := cfg.PollInterval()
	var exitErr error
	var loop *presenter.Loop
	loop = presenter.NewLoop(ctx, runner, sessions,
		func() { TclAfter(interval, loop.Tick) },
		func(err error) {
			exitErr = err
			Destroy(App)
		},
	)
	TclAfter(interval, loop.Tick)
	App.Wait()
	if err := ctrl.Close(); err != nil && exitErr == nil {
		exitErr = err
	}
	return exitErr
}

// openSource returns the frame source and the screen rectangle it covers.
// Replayed frames are not on screen, so their rectangle sits at the origin.
func openSource(cfg *config.Config, logger *slog.Logger) (capture.Source, image.Rectangle, error) {
	if cfg.ReplayDir != "" {
		src, err := capture.NewReplaySource(capture.ReplayOptions{
			Dir:      cfg.ReplayDir,
			Width:    cfg.FrameWidth,
			Height:   cfg.FrameHeight,
			Interval: cfg.CaptureInterval(),
			Loop:     cfg.ReplayLoop,
		}, logger)
		if err != nil {
			return nil, image.Rectangle{}, err
		}
		return src, src.Bounds(), nil
	}
	rect, ok := cfg.CaptureRect()
	if !ok {
		screen, err := capture.ScreenBounds()
		if err != nil {
			return nil, image.Rectangle{}, err
		}
		rect = screen
	}
	src := capture.NewScreenSource(rect, cfg.CaptureInterval(), nil, logger)
	return src, src.ScreenRect(), nil
}
