// Package track follows individual juggling balls across frames. It matches
// per-frame detections against persistent tracks, tolerates short detection
// gaps, and retires identities whose reacquisition windows have run out.
package track

import (
	"image"
	"time"
)

// State is the lifecycle state of a track.
type State uint8

const (
	// Active means the ball was matched to a detection on the current frame
	// or is still being followed without interruption.
	Active State = iota
	// Lost means the ball produced no matching detection and is waiting for
	// reacquisition within the configured time and range windows.
	Lost
	// Expired means the reacquisition windows ran out. Terminal: the track
	// is removed from the active set and its ID is never reused.
	Expired
)

// String returns a human-readable state name for logs and the debug overlay.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Lost:
		return "lost"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Observation is one entry in a track's position history.
type Observation struct {
	Time     time.Time
	Centroid image.Point
}

// Track is the persistent identity of one physical ball across frames.
type Track struct {
	// ID is unique for the lifetime of the tracker and never reused.
	ID int
	// State is the current lifecycle state.
	State State
	// History is the strictly time-ordered sequence of observed centroids.
	// Append-only while the track is Active; frozen once it is Lost.
	History []Observation
	// LastSeen is the timestamp of the most recent successful match.
	LastSeen time.Time
	// LastPos is the centroid at LastSeen, the anchor for reacquisition
	// range checks.
	LastPos image.Point
}

// observe appends a matched centroid and updates the reacquisition anchors.
// Observations must be strictly time-ordered; a non-advancing timestamp is
// dropped to preserve that invariant.
func (t *Track) observe(now time.Time, centroid image.Point) {
	if len(t.History) > 0 && !now.After(t.History[len(t.History)-1].Time) {
		return
	}
	t.History = append(t.History, Observation{Time: now, Centroid: centroid})
	t.LastSeen = now
	t.LastPos = centroid
}

// Centroid returns the most recently observed centroid.
func (t *Track) Centroid() image.Point {
	return t.LastPos
}
