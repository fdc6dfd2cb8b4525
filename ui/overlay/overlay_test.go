package overlay

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soocke/turret-tracker/domain/tracking"
)

func TestBuildTracking(t *testing.T) {
	m := tracking.RenderModel{
		State:       tracking.StateTracking,
		Region:      &tracking.Region{X: 10, Y: 10, Width: 50, Height: 50},
		Offset:      &tracking.Offset{DX: -285, DY: -205},
		FrameCenter: tracking.Point{X: 320, Y: 240},
		Hints:       []tracking.Hint{tracking.HintSelect, tracking.HintQuit},
	}
	got := Build(m, 640, 480)
	want := Overlay{
		Boxes: []Box{{Rect: image.Rect(10, 10, 60, 60), Color: Red, Thickness: 3}},
		Segments: []Segment{
			{From: image.Pt(35, 26), To: image.Pt(35, 44), Color: Blue, Thickness: 2},
			{From: image.Pt(26, 35), To: image.Pt(44, 35), Color: Blue, Thickness: 2},
			{From: image.Pt(320, 160), To: image.Pt(320, 320), Color: Green, Thickness: 2},
			{From: image.Pt(213, 240), To: image.Pt(427, 240), Color: Green, Thickness: 2},
		},
		Texts: []Text{
			{Text: "Horizontal Error: -285", Origin: image.Pt(3, 477), Color: Blue, Scale: TextLarge, Thickness: 2},
			{Text: "Vertical Error: -205", Origin: image.Pt(3, 462), Color: Blue, Scale: TextLarge, Thickness: 2},
			{Text: "Press k to select object to track!", Origin: image.Pt(3, 15), Color: Yellow, Scale: TextSmall, Thickness: 1},
			{Text: "Press q to exit!", Origin: image.Pt(3, 30), Color: Yellow, Scale: TextSmall, Thickness: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIdleHasNoTarget(t *testing.T) {
	m := tracking.RenderModel{State: tracking.StateIdle, FrameCenter: tracking.Point{X: 320, Y: 240}, Hints: []tracking.Hint{tracking.HintSelect}}
	got := Build(m, 640, 480)
	if len(got.Boxes) != 0 {
		t.Fatalf("idle overlay has boxes: %v", got.Boxes)
	}
	if len(got.Segments) != 2 || len(got.Texts) != 1 {
		t.Fatalf("unexpected overlay %+v", got)
	}
}

func TestBuildHintsNameConfiguredKeys(t *testing.T) {
	m := tracking.RenderModel{
		State: tracking.StateIdle,
		Hints: []tracking.Hint{tracking.HintSelect, tracking.HintQuit},
		Keys:  tracking.KeyBindings{Select: 'j', Quit: 'x'},
	}
	got := Build(m, 640, 480)
	var texts []string
	for _, tx := range got.Texts {
		texts = append(texts, tx.Text)
	}
	want := []string{"Press j to select object to track!", "Press x to exit!"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("hint texts (-want +got):\n%s", diff)
	}
}

func TestBuildTerminalIsEmpty(t *testing.T) {
	got := Build(tracking.RenderModel{State: tracking.StateTerminal}, 640, 480)
	if len(got.Boxes)+len(got.Segments)+len(got.Texts) != 0 {
		t.Fatalf("terminal overlay = %+v", got)
	}
}
