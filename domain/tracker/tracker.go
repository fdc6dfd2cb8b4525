package tracker

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/soocke/turret-tracker/domain/tracking"
)

var (
	ErrUnsupportedFrame = errors.New("tracker: unsupported frame type")
	ErrLowContrast      = errors.New("tracker: template has no contrast")
	ErrOutsideFrame     = errors.New("tracker: region outside frame")
)

// Options configures the NCC tracker.
type Options struct {
	// Threshold is the minimum NCC score accepted as a successful update.
	Threshold float64 `json:"threshold"`
	// Stride is the coarse scan step in pixels.
	Stride int `json:"stride"`
	// Refine rescans +-Stride around the coarse best hit.
	Refine bool `json:"refine"`
	// SearchMargin is how far beyond the last region the tracker looks.
	// Zero means the larger region side.
	SearchMargin int `json:"search_margin"`
	// Scales are template scale factors tried each update; empty means 1.0.
	Scales []float64 `json:"scales"`
	// RefreshScore re-extracts the template when a non-unit scale wins with
	// at least this score. Zero disables template refresh.
	RefreshScore float64 `json:"refresh_score"`
}

// DefaultOptions returns tracker settings tuned for 640x480 frames.
func DefaultOptions() Options {
	return Options{
		Threshold:    0.6,
		Stride:       2,
		Refine:       true,
		SearchMargin: 0,
		Scales:       []float64{1.0},
		RefreshScore: 0.9,
	}
}

// NCCTracker follows a template through successive frames by searching a
// window around its last known position. Each instance owns its template;
// after a failed update it reports failure forever.
type NCCTracker struct {
	opts     Options
	logger   *slog.Logger
	base     *templatePrecomp
	scaled   map[float64]*templatePrecomp
	region   image.Rectangle
	lastBest float64
	ready    bool
	lost     bool
	closed   bool
}

var _ tracking.Tracker = (*NCCTracker)(nil)

// New returns an uninitialised tracker.
func New(opts Options, logger *slog.Logger) *NCCTracker {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultOptions().Threshold
	}
	if opts.Stride <= 0 {
		opts.Stride = 1
	}
	if len(opts.Scales) == 0 {
		opts.Scales = []float64{1.0}
	}
	return &NCCTracker{opts: opts, logger: logger}
}

// Factory returns a tracking.TrackerFactory producing fresh NCC trackers.
func Factory(opts Options, logger *slog.Logger) tracking.TrackerFactory {
	return func() (tracking.Tracker, error) { return New(opts, logger), nil }
}

// Init captures the template under region.
func (t *NCCTracker) Init(frame tracking.Frame, region tracking.Region) error {
	if t.ready {
		return tracking.ErrSessionInitialized
	}
	img, err := asRGBA(frame)
	if err != nil {
		return err
	}
	rect := region.Rect().Intersect(img.Bounds())
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return fmt.Errorf("%w: %s", ErrOutsideFrame, region)
	}
	tmpl := buildTemplate(img, rect)
	if tmpl == nil || tmpl.stdT <= 1e-9 {
		return ErrLowContrast
	}
	t.setTemplate(tmpl)
	t.region = rect
	t.ready = true
	return nil
}

func (t *NCCTracker) setTemplate(tmpl *templatePrecomp) {
	t.base = tmpl
	t.scaled = make(map[float64]*templatePrecomp, len(t.opts.Scales))
	for _, f := range t.opts.Scales {
		if pc := tmpl.scaled(f); pc != nil {
			t.scaled[f] = pc
		}
	}
	if len(t.scaled) == 0 {
		t.scaled[1.0] = tmpl
	}
}

// Update searches around the last region. It returns false once the best
// score drops below the threshold and never recovers afterwards.
func (t *NCCTracker) Update(frame tracking.Frame) (tracking.Region, bool) {
	if !t.ready || t.lost || t.closed {
		return tracking.Region{}, false
	}
	img, err := asRGBA(frame)
	if err != nil {
		t.fail("unsupported frame", err)
		return tracking.Region{}, false
	}
	margin := t.opts.SearchMargin
	if margin <= 0 {
		margin = max(t.region.Dx(), t.region.Dy())
	}
	window := t.region.Inset(-margin).Intersect(img.Bounds())
	pre := buildGrayPrecomp(img, window)
	if pre == nil {
		t.fail("search window empty", nil)
		return tracking.Region{}, false
	}
	var best matchResult
	if len(t.scaled) == 1 {
		for f, pc := range t.scaled {
			best = matchWindow(pre, pc, t.opts.Stride, t.opts.Refine)
			best.Scale = f
		}
	} else {
		best = matchScales(pre, t.scaled, t.opts.Stride, t.opts.Refine)
	}
	t.lastBest = best.Score
	if best.Score < t.opts.Threshold {
		t.fail("score below threshold", nil)
		return tracking.Region{}, false
	}
	t.region = image.Rect(best.X, best.Y, best.X+best.W, best.Y+best.H)
	if t.opts.RefreshScore > 0 && best.Score >= t.opts.RefreshScore && best.Scale != 1.0 {
		if tmpl := buildTemplate(img, t.region); tmpl != nil && tmpl.stdT > 1e-9 {
			t.setTemplate(tmpl)
		}
	}
	return tracking.RegionFromRect(t.region), true
}

// Score returns the best NCC score of the last update.
func (t *NCCTracker) Score() float64 { return t.lastBest }

func (t *NCCTracker) fail(reason string, err error) {
	t.lost = true
	if t.logger == nil {
		return
	}
	if err != nil {
		t.logger.Debug("ncc tracker lost target", "reason", reason, "error", err)
		return
	}
	t.logger.Debug("ncc tracker lost target", "reason", reason, "score", t.lastBest)
}

// Close drops the template.
func (t *NCCTracker) Close() error {
	t.closed = true
	t.base = nil
	t.scaled = nil
	return nil
}

func asRGBA(frame tracking.Frame) (*image.RGBA, error) {
	switch f := frame.(type) {
	case *image.RGBA:
		if f == nil {
			return nil, ErrUnsupportedFrame
		}
		return f, nil
	case image.Image:
		b := f.Bounds()
		out := image.NewRGBA(b)
		draw.Draw(out, b, f, b.Min, draw.Src)
		return out, nil
	default:
		return nil, ErrUnsupportedFrame
	}
}
