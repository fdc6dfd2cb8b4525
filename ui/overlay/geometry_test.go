package overlay

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soocke/turret-tracker/domain/tracking"
)

func TestParseGeometry(t *testing.T) {
	r, ok := ParseGeometry(" 200x100+-10+20 ")
	assert.True(t, ok)
	assert.Equal(t, image.Rect(-10, 20, 190, 120), r)
	assert.Equal(t, "200x100+-10+20", FormatGeometry(r))

	for _, bad := range []string{"", "0x10+1+1", "10x10", "axb+1+1"} {
		_, ok := ParseGeometry(bad)
		assert.False(t, ok, bad)
	}
}

func TestScreenToFrame(t *testing.T) {
	origin := image.Pt(100, 50)
	got := ScreenToFrame(image.Rect(110, 60, 160, 110), origin, 640, 480)
	assert.Equal(t, tracking.Region{X: 10, Y: 10, Width: 50, Height: 50}, got)

	clipped := ScreenToFrame(image.Rect(90, 40, 120, 70), origin, 640, 480)
	assert.Equal(t, tracking.Region{X: 0, Y: 0, Width: 20, Height: 20}, clipped)

	outside := ScreenToFrame(image.Rect(0, 0, 50, 40), origin, 640, 480)
	assert.True(t, outside.Degenerate())
}

func TestInitialSelection(t *testing.T) {
	r := InitialSelection(image.Pt(100, 50), 600, 300)
	assert.Equal(t, image.Rect(300, 150, 500, 250), r)
}
