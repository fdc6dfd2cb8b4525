package opencv

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"github.com/soocke/turret-tracker/domain/tracker"
	"github.com/soocke/turret-tracker/domain/tracking"
)

var errTrackerInit = errors.New("opencv: tracker rejected initial region")

// Algorithms lists the tracker names TrackerFactory accepts.
var Algorithms = []string{"kcf", "csrt", "mil", "ncc"}

// matTracker adapts a gocv.Tracker to tracking.Tracker.
type matTracker struct {
	name string
	t    gocv.Tracker
}

func (m *matTracker) Init(frame tracking.Frame, region tracking.Region) error {
	mat, err := asMat(frame)
	if err != nil {
		return err
	}
	if !m.t.Init(*mat, region.Rect()) {
		return fmt.Errorf("%s: %w", m.name, errTrackerInit)
	}
	return nil
}

func (m *matTracker) Update(frame tracking.Frame) (tracking.Region, bool) {
	mat, err := asMat(frame)
	if err != nil {
		return tracking.Region{}, false
	}
	r, ok := m.t.Update(*mat)
	if !ok {
		return tracking.Region{}, false
	}
	return tracking.RegionFromRect(r), true
}

func (m *matTracker) Close() error { return m.t.Close() }

// imageTracker runs a pure-Go tracker on Mat frames by converting them first.
type imageTracker struct {
	inner tracking.Tracker
}

func (i *imageTracker) convert(frame tracking.Frame) (image.Image, error) {
	mat, err := asMat(frame)
	if err != nil {
		return nil, err
	}
	return mat.ToImage()
}

func (i *imageTracker) Init(frame tracking.Frame, region tracking.Region) error {
	img, err := i.convert(frame)
	if err != nil {
		return err
	}
	return i.inner.Init(img, region)
}

func (i *imageTracker) Update(frame tracking.Frame) (tracking.Region, bool) {
	img, err := i.convert(frame)
	if err != nil {
		return tracking.Region{}, false
	}
	return i.inner.Update(img)
}

func (i *imageTracker) Close() error { return i.inner.Close() }

// TrackerFactory returns a factory for the named algorithm. KCF matches the
// tracker the turret was originally tuned with.
func TrackerFactory(algorithm string, ncc tracker.Options, logger *slog.Logger) (tracking.TrackerFactory, error) {
	name := strings.ToLower(strings.TrimSpace(algorithm))
	var build func() gocv.Tracker
	switch name {
	case "", "kcf":
		name = "kcf"
		build = contrib.NewTrackerKCF
	case "csrt":
		build = contrib.NewTrackerCSRT
	case "mil":
		build = gocv.NewTrackerMIL
	case "ncc":
		return func() (tracking.Tracker, error) {
			return &imageTracker{inner: tracker.New(ncc, logger)}, nil
		}, nil
	default:
		return nil, fmt.Errorf("opencv: unknown tracker %q (want one of %s)", algorithm, strings.Join(Algorithms, ", "))
	}
	return func() (tracking.Tracker, error) {
		return &matTracker{name: name, t: build()}, nil
	}, nil
}
