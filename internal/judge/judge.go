// Package judge classifies completed throws against the target height band
// and keeps the running success statistics for the session.
package judge

import (
	"github.com/cascadecv/cascade/internal/apex"
)

// Verdict is the outcome of judging one throw.
type Verdict uint8

const (
	// OnTarget means the apex fell inside the target band.
	OnTarget Verdict = iota
	// TooLow means the apex fell short of the band.
	TooLow
	// TooHigh means the apex overshot the band.
	TooHigh
)

// String returns the verdict name used in logs and stored throw records.
func (v Verdict) String() string {
	switch v {
	case OnTarget:
		return "on_target"
	case TooLow:
		return "too_low"
	case TooHigh:
		return "too_high"
	default:
		return "unknown"
	}
}

// Band is the inclusive target height range [Low, High], in the same
// inverted-y height units as apex.Throw.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether a height falls inside the band.
func (b Band) Contains(height float64) bool {
	return height >= b.Low && height <= b.High
}

// Feedback is the judged outcome of one throw, consumed by the audio sink
// and the HUD.
type Feedback struct {
	Throw   apex.Throw
	Verdict Verdict
}

// Judge classifies throws against a target band. Classification itself is
// stateless; the judge additionally accumulates success and failure counts
// for the session summary. Not safe for concurrent use.
type Judge struct {
	band      Band
	successes int
	failures  int
}

// NewJudge creates a Judge for the given target band.
func NewJudge(band Band) *Judge {
	return &Judge{band: band}
}

// Classify judges one throw's apex height against the band and updates the
// session counters.
func (j *Judge) Classify(t apex.Throw) Feedback {
	verdict := OnTarget
	switch {
	case t.Height < j.band.Low:
		verdict = TooLow
	case t.Height > j.band.High:
		verdict = TooHigh
	}

	if verdict == OnTarget {
		j.successes++
	} else {
		j.failures++
	}

	return Feedback{Throw: t, Verdict: verdict}
}

// Band returns the current target band.
func (j *Judge) Band() Band {
	return j.band
}

// SetBand replaces the target band. Used by the live keyboard calibration.
func (j *Judge) SetBand(band Band) {
	j.band = band
}

// Successes returns the number of on-target throws this session.
func (j *Judge) Successes() int {
	return j.successes
}

// Failures returns the number of off-target throws this session.
func (j *Judge) Failures() int {
	return j.failures
}

// SuccessRate returns the fraction of throws that were on target, or zero
// when nothing has been judged yet.
func (j *Judge) SuccessRate() float64 {
	total := j.successes + j.failures
	if total == 0 {
		return 0
	}
	return float64(j.successes) / float64(total)
}
