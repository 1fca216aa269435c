package track

import (
	"image"
	"math"
	"sort"
	"time"

	"github.com/cascadecv/cascade/internal/detect"
)

// Config holds the association engine's reacquisition windows.
type Config struct {
	// TrackTime is the maximum time a lost track may wait for reacquisition
	// before it expires.
	TrackTime time.Duration
	// TrackRange is the maximum pixel distance from the last seen position
	// accepted when reacquiring a lost track.
	TrackRange float64
}

// Update is the result of one per-frame tracker pass.
type Update struct {
	// Tracks is the set of live tracks (Active and Lost) after this frame,
	// in ascending ID order.
	Tracks []*Track
	// Expired holds tracks that expired on this frame. They have already
	// been removed from the live set.
	Expired []*Track
}

// Tracker is the track association engine. It is not safe for concurrent
// use; the frame pipeline drives it from a single goroutine.
type Tracker struct {
	config Config
	tracks []*Track // live tracks, ascending ID order
	nextID int
}

// NewTracker creates a Tracker with the given reacquisition windows.
func NewTracker(config Config) *Tracker {
	return &Tracker{config: config}
}

// Tracks returns the live track set in ascending ID order.
func (t *Tracker) Tracks() []*Track {
	return append([]*Track(nil), t.tracks...)
}

// candidate is a potential pairing between a live track and a detection.
type candidate struct {
	trackIdx int
	detIdx   int
	dist     float64
}

// Process consumes one frame's detections and produces the next track set.
//
// Pairings between every live track and every detection are scored by
// centroid distance from the track's last known position and assigned
// greedily in ascending distance order, each track and detection used at
// most once. Ties break on lower track ID, then lower detection index, so
// the assignment is reproducible for identical inputs.
//
// A lost track reacquires a detection only when both windows hold: the gap
// since it was last seen is within TrackTime and the detection is within
// TrackRange of the anchor position. A match that violates the windows is
// discarded and the detection falls through to spawn a fresh track instead;
// misattributing a ball that reappears far away to an old identity is worse
// than starting over.
//
// Detector misses and spurious detections are expected steady-state
// conditions here, not errors, which is why this method has no error return.
func (t *Tracker) Process(now time.Time, detections []detect.Detection) Update {
	candidates := make([]candidate, 0, len(t.tracks)*len(detections))
	for ti, tr := range t.tracks {
		for di, d := range detections {
			candidates = append(candidates, candidate{
				trackIdx: ti,
				detIdx:   di,
				dist:     distance(tr.LastPos, d.Centroid()),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if t.tracks[a.trackIdx].ID != t.tracks[b.trackIdx].ID {
			return t.tracks[a.trackIdx].ID < t.tracks[b.trackIdx].ID
		}
		return a.detIdx < b.detIdx
	})

	usedTrack := make([]bool, len(t.tracks))
	usedDet := make([]bool, len(detections))

	for _, c := range candidates {
		if usedTrack[c.trackIdx] || usedDet[c.detIdx] {
			continue
		}

		tr := t.tracks[c.trackIdx]
		centroid := detections[c.detIdx].Centroid()

		switch tr.State {
		case Active:
			tr.observe(now, centroid)
			usedTrack[c.trackIdx] = true
			usedDet[c.detIdx] = true

		case Lost:
			inTime := now.Sub(tr.LastSeen) <= t.config.TrackTime
			inRange := c.dist <= t.config.TrackRange
			if inTime && inRange {
				tr.State = Active
				tr.observe(now, centroid)
				usedTrack[c.trackIdx] = true
				usedDet[c.detIdx] = true
			}
			// Windows violated: the detection stays unmatched and will
			// spawn a fresh track below.
		}
	}

	// Active tracks with no match go Lost. The anchors stay frozen at the
	// last successful match so reacquisition measures from there.
	for ti, tr := range t.tracks {
		if !usedTrack[ti] && tr.State == Active {
			tr.State = Lost
		}
	}

	// Lost tracks past the time window expire and leave the live set.
	var kept, expired []*Track
	for _, tr := range t.tracks {
		if tr.State == Lost && now.Sub(tr.LastSeen) > t.config.TrackTime {
			tr.State = Expired
			expired = append(expired, tr)
			continue
		}
		kept = append(kept, tr)
	}
	t.tracks = kept

	// Every detection that found no home starts a new identity.
	for di, d := range detections {
		if !usedDet[di] {
			t.spawn(now, d.Centroid())
		}
	}

	return Update{Tracks: t.Tracks(), Expired: expired}
}

// spawn registers a fresh Active track for an unmatched detection.
func (t *Tracker) spawn(now time.Time, centroid image.Point) *Track {
	tr := &Track{
		ID:       t.nextID,
		State:    Active,
		History:  []Observation{{Time: now, Centroid: centroid}},
		LastSeen: now,
		LastPos:  centroid,
	}
	t.nextID++
	t.tracks = append(t.tracks, tr)
	return tr
}

// distance returns the Euclidean distance between two image points.
func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
