package tracker

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/turret-tracker/domain/tracking"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// sceneWithPatch draws a smooth textured patch at (px, py) on a flat gray
// background.
func sceneWithPatch(w, h, px, py, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{90, 90, 90, 255})
		}
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(128 + 100*math.Sin(float64(x)/4)*math.Cos(float64(y)/5))
			img.SetRGBA(px+x, py+y, color.RGBA{v, 255 - v, v / 2, 255})
		}
	}
	return img
}

func flat(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestTrackerFollowsPatch(t *testing.T) {
	tr := New(Options{Threshold: 0.8, Stride: 1}, discardLogger())
	start := sceneWithPatch(160, 120, 40, 30, 20)
	require.NoError(t, tr.Init(start, tracking.Region{X: 40, Y: 30, Width: 20, Height: 20}))

	for step := 1; step <= 4; step++ {
		px, py := 40+step*3, 30+step*2
		r, ok := tr.Update(sceneWithPatch(160, 120, px, py, 20))
		require.True(t, ok, "step %d score %.3f", step, tr.Score())
		assert.Equal(t, tracking.Region{X: px, Y: py, Width: 20, Height: 20}, r)
	}
}

func TestTrackerStrideRefineFindsExactPosition(t *testing.T) {
	tr := New(Options{Threshold: 0.8, Stride: 4, Refine: true}, nil)
	require.NoError(t, tr.Init(sceneWithPatch(160, 120, 50, 50, 24), tracking.Region{X: 50, Y: 50, Width: 24, Height: 24}))
	r, ok := tr.Update(sceneWithPatch(160, 120, 57, 45, 24))
	require.True(t, ok)
	assert.Equal(t, tracking.Region{X: 57, Y: 45, Width: 24, Height: 24}, r)
}

func TestTrackerLosesTargetAndStaysLost(t *testing.T) {
	tr := New(DefaultOptions(), discardLogger())
	require.NoError(t, tr.Init(sceneWithPatch(160, 120, 40, 30, 20), tracking.Region{X: 40, Y: 30, Width: 20, Height: 20}))

	_, ok := tr.Update(flat(160, 120))
	assert.False(t, ok)
	_, ok = tr.Update(sceneWithPatch(160, 120, 40, 30, 20))
	assert.False(t, ok, "tracker must not recover after failure")
}

func TestTrackerOutOfWindowIsLost(t *testing.T) {
	tr := New(Options{Threshold: 0.8, Stride: 1, SearchMargin: 5}, nil)
	require.NoError(t, tr.Init(sceneWithPatch(200, 120, 10, 10, 20), tracking.Region{X: 10, Y: 10, Width: 20, Height: 20}))
	_, ok := tr.Update(sceneWithPatch(200, 120, 150, 80, 20))
	assert.False(t, ok)
}

func TestTrackerInitErrors(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	err := tr.Init(flat(64, 64), tracking.Region{X: 10, Y: 10, Width: 20, Height: 20})
	assert.True(t, errors.Is(err, ErrLowContrast))

	tr = New(DefaultOptions(), nil)
	err = tr.Init(sceneWithPatch(64, 64, 0, 0, 10), tracking.Region{X: 100, Y: 100, Width: 20, Height: 20})
	assert.True(t, errors.Is(err, ErrOutsideFrame))

	tr = New(DefaultOptions(), nil)
	err = tr.Init("not a frame", tracking.Region{X: 0, Y: 0, Width: 4, Height: 4})
	assert.True(t, errors.Is(err, ErrUnsupportedFrame))
}

func TestTrackerInitOnce(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	frame := sceneWithPatch(64, 64, 10, 10, 16)
	require.NoError(t, tr.Init(frame, tracking.Region{X: 10, Y: 10, Width: 16, Height: 16}))
	assert.ErrorIs(t, tr.Init(frame, tracking.Region{X: 10, Y: 10, Width: 16, Height: 16}), tracking.ErrSessionInitialized)
}

func TestTrackerMultiScale(t *testing.T) {
	tr := New(Options{Threshold: 0.7, Stride: 1, Scales: []float64{0.9, 1.0, 1.1}}, nil)
	require.NoError(t, tr.Init(sceneWithPatch(160, 120, 40, 30, 20), tracking.Region{X: 40, Y: 30, Width: 20, Height: 20}))
	r, ok := tr.Update(sceneWithPatch(160, 120, 44, 30, 20))
	require.True(t, ok)
	assert.Equal(t, 20, r.Width)
	assert.Equal(t, 44, r.X)
}

func TestTrackerAcceptsGenericImage(t *testing.T) {
	src := sceneWithPatch(64, 64, 10, 10, 16)
	nrgba := image.NewNRGBA(src.Bounds())
	copy(nrgba.Pix, src.Pix)
	tr := New(DefaultOptions(), nil)
	require.NoError(t, tr.Init(nrgba, tracking.Region{X: 10, Y: 10, Width: 16, Height: 16}))
}

func TestFactoryBuildsIndependentTrackers(t *testing.T) {
	f := Factory(DefaultOptions(), nil)
	a, err := f()
	require.NoError(t, err)
	b, err := f()
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	require.NoError(t, a.Init(sceneWithPatch(64, 64, 10, 10, 16), tracking.Region{X: 10, Y: 10, Width: 16, Height: 16}))
	require.NoError(t, b.Init(otherScene(), tracking.Region{X: 2, Y: 2, Width: 16, Height: 16}))
	require.NoError(t, a.Close())
}

func otherScene() *image.RGBA { return sceneWithPatch(64, 64, 2, 2, 16) }
