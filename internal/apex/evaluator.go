// Package apex turns a tracked ball's height samples into discrete
// completed-throw events carrying the peak height of each throw.
package apex

import (
	"time"
)

// Throw is one completed throw. Height is measured on the inverted image
// y axis, so a larger value means a higher throw.
type Throw struct {
	TrackID int
	Height  float64
	At      time.Time
}

// Config holds the evaluator's thresholds, in height units.
type Config struct {
	// LaunchCeiling is the top of the launch zone. A flight only arms when
	// the ball starts rising from at or below this height, and a flight
	// whose peak never clears it produces no throw.
	LaunchCeiling float64
	// Tolerance is the height drop absorbed as detection jitter before a
	// decrease is treated as the end of a flight.
	Tolerance float64
}

// flight accumulates the in-progress throw of a single track.
type flight struct {
	lastHeight float64
	hasLast    bool
	rising     bool
	apexHeight float64
	apexAt     time.Time
}

// Evaluator detects completed throws from per-track height samples. Each
// live track owns at most one flight accumulator at a time, created on first
// observation and cleared exactly once: on completion or on discard.
// Not safe for concurrent use.
type Evaluator struct {
	config  Config
	flights map[int]*flight
}

// NewEvaluator creates an Evaluator with the given thresholds.
func NewEvaluator(config Config) *Evaluator {
	return &Evaluator{
		config:  config,
		flights: make(map[int]*flight),
	}
}

// Observe feeds one height sample for an active track. It returns a Throw
// and true exactly when this sample completes a throw: the first drop below
// the running peak by more than the jitter tolerance, for a peak that
// cleared the launch ceiling.
func (e *Evaluator) Observe(trackID int, now time.Time, height float64) (Throw, bool) {
	f := e.flights[trackID]
	if f == nil {
		f = &flight{}
		e.flights[trackID] = f
	}

	if !f.hasLast {
		f.lastHeight = height
		f.hasLast = true
		return Throw{}, false
	}

	prev := f.lastHeight
	f.lastHeight = height

	if !f.rising {
		// A flight arms when the ball starts moving upward from the
		// launch zone. Rising motion that begins mid-air (for example a
		// reacquired track) is ignored until the ball returns to hand.
		if height > prev && prev <= e.config.LaunchCeiling {
			f.rising = true
			f.apexHeight = height
			f.apexAt = now
		}
		return Throw{}, false
	}

	if height >= f.apexHeight {
		f.apexHeight = height
		f.apexAt = now
		return Throw{}, false
	}

	if height < f.apexHeight-e.config.Tolerance {
		// The ball is falling: the running peak is the apex.
		apexHeight, apexAt := f.apexHeight, f.apexAt
		f.rising = false

		if apexHeight > e.config.LaunchCeiling {
			return Throw{TrackID: trackID, Height: apexHeight, At: apexAt}, true
		}
		// The ball never left the launch zone; not a throw.
		return Throw{}, false
	}

	// Drop within tolerance: detection jitter, the flight continues.
	return Throw{}, false
}

// Discard drops any in-progress flight for the track. Called when a track
// goes lost or expires; an incomplete flight carries no valid apex signal.
func (e *Evaluator) Discard(trackID int) {
	delete(e.flights, trackID)
}

// InFlight reports whether the track currently has a flight accumulator.
func (e *Evaluator) InFlight(trackID int) bool {
	_, ok := e.flights[trackID]
	return ok
}
