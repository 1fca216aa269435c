package hud

import (
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func testFrame(t *testing.T) *gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return &m
}

func TestOverlay_BandAdjustment(t *testing.T) {
	o := NewOverlay(640, 120, 48)

	o.AdjustBandY(-2)
	o.AdjustBandY(-2)
	o.AdjustBandLen(2)

	y, length := o.Band()
	if y != 116 {
		t.Errorf("expected band top 116, got %d", y)
	}
	if length != 50 {
		t.Errorf("expected band length 50, got %d", length)
	}
}

func TestOverlay_BandLenNeverNegative(t *testing.T) {
	o := NewOverlay(640, 120, 2)

	// Shrinking past zero clamps instead of inverting the band.
	o.AdjustBandLen(-2)
	o.AdjustBandLen(-2)

	if _, length := o.Band(); length != 0 {
		t.Errorf("expected band length clamped to 0, got %d", length)
	}

	o.AdjustBandLen(2)
	if _, length := o.Band(); length != 2 {
		t.Errorf("expected band length 2 after growing back, got %d", length)
	}
}

func TestOverlay_MarksExpire(t *testing.T) {
	o := NewOverlay(640, 120, 48)
	frame := testFrame(t)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o.MarkThrow(now, 0, image.Pt(320, 140), true)
	o.MarkThrow(now.Add(400*time.Millisecond), 1, image.Pt(100, 150), false)

	// Within the TTL both marks are live.
	o.DrawMarks(frame, now.Add(450*time.Millisecond))
	if len(o.marks) != 2 {
		t.Fatalf("expected 2 live marks, got %d", len(o.marks))
	}

	// The first mark ages out; the second is still fresh.
	o.DrawMarks(frame, now.Add(700*time.Millisecond))
	if len(o.marks) != 1 {
		t.Fatalf("expected 1 live mark, got %d", len(o.marks))
	}
	if _, ok := o.marks[1]; !ok {
		t.Error("expected the fresher mark to survive")
	}
}

func TestOverlay_MarkReplacedPerTrack(t *testing.T) {
	o := NewOverlay(640, 120, 48)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o.MarkThrow(now, 0, image.Pt(320, 140), false)
	// A new throw on the same track replaces the previous marker.
	o.MarkThrow(now.Add(time.Second), 0, image.Pt(330, 130), true)

	if len(o.marks) != 1 {
		t.Fatalf("expected 1 mark, got %d", len(o.marks))
	}
	m := o.marks[0]
	if m.at != image.Pt(330, 130) || !m.success {
		t.Errorf("expected the newer mark, got %+v", m)
	}
}

func TestOverlay_DrawBandPaintsFrame(t *testing.T) {
	o := NewOverlay(640, 120, 48)
	frame := testFrame(t)

	o.DrawBand(frame)

	// The band's top edge should have non-black pixels after drawing.
	painted := false
	for x := 0; x < 640; x += 40 {
		v := frame.GetVecbAt(120, x)
		if v[0] != 0 || v[1] != 0 || v[2] != 0 {
			painted = true
			break
		}
	}
	if !painted {
		t.Error("expected the band rectangle to paint pixels on its top edge")
	}
}
