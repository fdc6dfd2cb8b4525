package overlay

import (
	"image"
	"regexp"
	"strconv"
	"strings"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y".
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// ParseGeometry parses a Tk geometry string into a screen rectangle.
func ParseGeometry(g string) (image.Rectangle, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// FormatGeometry is the inverse of ParseGeometry.
func FormatGeometry(r image.Rectangle) string {
	return strconv.Itoa(r.Dx()) + "x" + strconv.Itoa(r.Dy()) + "+" + strconv.Itoa(r.Min.X) + "+" + strconv.Itoa(r.Min.Y)
}

// ScreenToFrame converts a screen rectangle into a region of a frame whose
// top-left pixel sits at origin on screen. The result is clipped to a
// width x height frame and may be degenerate when the rectangle misses it.
func ScreenToFrame(screen image.Rectangle, origin image.Point, width, height int) tracking.Region {
	r := screen.Sub(origin).Intersect(image.Rect(0, 0, width, height))
	return tracking.RegionFromRect(r)
}

// InitialSelection proposes the centered third of the frame, in screen
// coordinates, as the starting selection window.
func InitialSelection(origin image.Point, width, height int) image.Rectangle {
	w, h := max(width/3, 1), max(height/3, 1)
	x, y := (width-w)/2, (height-h)/2
	return image.Rect(x, y, x+w, y+h).Add(origin)
}
