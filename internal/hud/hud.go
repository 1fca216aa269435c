// Package hud draws the debug overlay: the target band, detection boxes,
// track IDs, apex markers, and the session counters.
package hud

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/cascadecv/cascade/internal/detect"
	"github.com/cascadecv/cascade/internal/track"
)

// markTTL is how long an apex marker stays on screen after the throw.
const markTTL = 500 * time.Millisecond

var (
	colorBand    = color.RGBA{0, 255, 0, 0}
	colorBox     = color.RGBA{0, 255, 0, 0}
	colorLost    = color.RGBA{0, 165, 255, 0}
	colorSuccess = color.RGBA{0, 255, 0, 0}
	colorFailure = color.RGBA{255, 0, 0, 0}
	colorText    = color.RGBA{190, 224, 132, 0}
)

// mark is a recorded apex point being displayed for a short while.
type mark struct {
	at      image.Point
	since   time.Time
	success bool
}

// Overlay renders per-frame debug information onto captured frames and owns
// the on-screen geometry of the target band.
type Overlay struct {
	frameWidth int
	bandY      int // top edge of the band, image-y pixels
	bandLen    int // vertical extent of the band
	marks      map[int]mark
}

// NewOverlay creates an Overlay for frames of the given width with the band
// at the given position.
func NewOverlay(frameWidth, bandY, bandLen int) *Overlay {
	return &Overlay{
		frameWidth: frameWidth,
		bandY:      bandY,
		bandLen:    bandLen,
		marks:      make(map[int]mark),
	}
}

// Band returns the band's top edge and vertical extent in image-y pixels.
func (o *Overlay) Band() (y, length int) {
	return o.bandY, o.bandLen
}

// AdjustBandY raises (negative delta) or lowers the band.
func (o *Overlay) AdjustBandY(delta int) {
	o.bandY += delta
}

// AdjustBandLen lengthens or shortens the band, never below zero.
func (o *Overlay) AdjustBandLen(delta int) {
	if o.bandLen+delta >= 0 {
		o.bandLen += delta
	} else {
		o.bandLen = 0
	}
}

// MarkThrow records an apex marker to display for the next markTTL.
func (o *Overlay) MarkThrow(now time.Time, trackID int, at image.Point, success bool) {
	o.marks[trackID] = mark{at: at, since: now, success: success}
}

// DrawBand draws the target band rectangle across the frame.
// The left edge starts at -1 so no vertical line shows at the frame border.
func (o *Overlay) DrawBand(frame *gocv.Mat) {
	r := image.Rect(-1, o.bandY, o.frameWidth, o.bandY+o.bandLen)
	gocv.Rectangle(frame, r, colorBand, 1)
}

// DrawDetections draws the raw detection boxes.
func (o *Overlay) DrawDetections(frame *gocv.Mat, detections []detect.Detection) {
	for _, d := range detections {
		gocv.Rectangle(frame, d.Box, colorBox, 2)
	}
}

// DrawTracks labels each live track with its ID at the last seen centroid.
// Lost tracks are drawn in a different color so reacquisition is visible.
func (o *Overlay) DrawTracks(frame *gocv.Mat, tracks []*track.Track) {
	for _, tr := range tracks {
		c := colorBox
		if tr.State == track.Lost {
			c = colorLost
		}
		text := fmt.Sprintf("ID %d", tr.ID)
		org := image.Pt(tr.LastPos.X-10, tr.LastPos.Y-10)
		gocv.PutText(frame, text, org, gocv.FontHersheySimplex, 0.5, c, 2)
	}
}

// DrawMarks draws the recent apex markers, green for on-target throws and
// red otherwise, dropping any marker older than markTTL.
func (o *Overlay) DrawMarks(frame *gocv.Mat, now time.Time) {
	for id, m := range o.marks {
		if now.Sub(m.since) > markTTL {
			delete(o.marks, id)
			continue
		}
		c := colorFailure
		if m.success {
			c = colorSuccess
		}
		gocv.Circle(frame, m.at, 4, c, -1)
	}
}

// DrawCounters draws the session success counter and percentage.
func (o *Overlay) DrawCounters(frame *gocv.Mat, successes, failures int) {
	total := successes + failures
	percentage := 0
	if total > 0 {
		percentage = successes * 100 / total
	}
	text := fmt.Sprintf("%d%% = %d / %d", percentage, successes, total)
	gocv.PutText(frame, text, image.Pt(0, 15), gocv.FontHersheySimplex, 0.5, colorText, 2)
}

// DrawFPS draws the measured frame rate in the top-right corner.
func (o *Overlay) DrawFPS(frame *gocv.Mat, fps float64) {
	text := fmt.Sprintf("FPS %d", int(fps))
	gocv.PutText(frame, text, image.Pt(o.frameWidth-80, 15), gocv.FontHersheySimplex, 0.5, colorText, 2)
}
