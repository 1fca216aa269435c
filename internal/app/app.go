// Package app drives the Cascade frame pipeline: capture, detection, track
// association, apex evaluation, judging, and feedback dispatch, one frame at
// a time.
package app

import (
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/cascadecv/cascade/internal/apex"
	"github.com/cascadecv/cascade/internal/audio"
	"github.com/cascadecv/cascade/internal/capture"
	"github.com/cascadecv/cascade/internal/config"
	"github.com/cascadecv/cascade/internal/detect"
	"github.com/cascadecv/cascade/internal/hud"
	"github.com/cascadecv/cascade/internal/judge"
	"github.com/cascadecv/cascade/internal/server"
	"github.com/cascadecv/cascade/internal/store"
	"github.com/cascadecv/cascade/internal/track"
)

// Geometry defaults, as fractions of the scaled frame height. The band
// defaults match the original on-screen calibration; the launch ceiling
// marks the hand-height region where throws begin.
const (
	defaultBandYFrac   = 0.25
	defaultBandLenFrac = 0.10
	launchCeilingFrac  = 0.40
	// apexJitterPx absorbs detection jitter before a height drop counts as
	// the end of a flight.
	apexJitterPx = 4.0
)

// bandStepPx is the keyboard calibration step.
const bandStepPx = 2

// Config holds the application wiring. Camera and Detector are required;
// everything else is optional.
type Config struct {
	Settings config.Settings
	Store    *store.Store
	Camera   capture.Camera
	Detector detect.Detector
	Sounds   *audio.Player
	Hub      *server.Hub
	Frames   *server.FrameBuffer
	// Record enables writing the rendered frames to a capture file.
	Record bool
	// CaptureDir is where recordings are written.
	CaptureDir string
	// ShowWindow enables the on-screen window and keyboard calibration.
	ShowWindow bool
	// OnFeedback, if set, is called for every judged throw.
	OnFeedback func(judge.Feedback)
}

// App is the frame pipeline orchestrator.
type App struct {
	config    Config
	tracker   *track.Tracker
	evaluator *apex.Evaluator
	judge     *judge.Judge
	overlay   *hud.Overlay

	frameWidth  int
	frameHeight int

	// Session bookkeeping, written to the store on shutdown.
	sessionStart time.Time
	apexHeights  []float64
	throws       []*store.ThrowRecord

	// mu guards the judge and session bookkeeping, which the HTTP stats
	// handler reads while the pipeline writes.
	mu sync.Mutex

	stopCh chan struct{}
	stopMu sync.Mutex
}

// New creates an App. The tracking and judging components are built lazily
// in Run, once the first frame has established the scaled frame geometry.
func New(cfg Config) *App {
	return &App{config: cfg}
}

// Stop asks the frame loop to finish. Safe to call from any goroutine and
// more than once.
func (a *App) Stop() {
	a.stopMu.Lock()
	defer a.stopMu.Unlock()
	if a.stopCh != nil {
		select {
		case <-a.stopCh:
		default:
			close(a.stopCh)
		}
	}
}

// stopping reports whether Stop has been called.
func (a *App) stopping() bool {
	select {
	case <-a.stopCh:
		return true
	default:
		return false
	}
}

// Stats returns a snapshot of the session counters for the dashboard.
func (a *App) Stats() server.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.judge == nil {
		return server.Stats{}
	}
	return server.Stats{
		Successes:   a.judge.Successes(),
		Failures:    a.judge.Failures(),
		SuccessRate: a.judge.SuccessRate(),
	}
}

// Settings returns the settings including any band calibration done during
// the run, for persistence on exit.
func (a *App) Settings() config.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.config.Settings
	if a.overlay != nil {
		s.BandY, s.BandLen = a.overlay.Band()
	}
	return s
}

// setup derives the frame geometry from the first scaled frame and builds
// the tracking, evaluation, and judging components.
func (a *App) setup(width, height int) {
	a.frameWidth = width
	a.frameHeight = height

	s := a.config.Settings

	bandY := s.BandY
	bandLen := s.BandLen
	if bandY == 0 && bandLen == 0 {
		bandY = int(float64(height) * defaultBandYFrac)
		bandLen = int(float64(height) * defaultBandLenFrac)
	}

	a.tracker = track.NewTracker(track.Config{
		TrackTime: time.Duration(s.TrackTime * float64(time.Second)),
		// The reacquisition range is configured in unscaled pixels and
		// shrinks with the frame.
		TrackRange: float64(s.TrackRange) * s.Scale,
	})
	a.evaluator = apex.NewEvaluator(apex.Config{
		LaunchCeiling: float64(height) * launchCeilingFrac,
		Tolerance:     apexJitterPx,
	})
	a.judge = judge.NewJudge(a.bandToHeights(bandY, bandLen))
	a.overlay = hud.NewOverlay(width, bandY, bandLen)

	a.sessionStart = time.Now()
}

// bandToHeights converts the on-screen band rectangle (image-y, growing
// downward) to the judge's height band (inverted y, growing upward).
func (a *App) bandToHeights(bandY, bandLen int) judge.Band {
	return judge.Band{
		Low:  float64(a.frameHeight - (bandY + bandLen)),
		High: float64(a.frameHeight - bandY),
	}
}

// heightOf converts an image-y coordinate to the inverted height axis.
func (a *App) heightOf(y int) float64 {
	return float64(a.frameHeight - y)
}

// finish writes the session row, its throws, and the (possibly recalibrated)
// settings back to the store.
func (a *App) finish() {
	if a.config.Store == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.judge == nil {
		return
	}

	sess := &store.Session{
		ID:        uuid.New().String(),
		StartedAt: a.sessionStart,
		EndedAt:   time.Now(),
		Successes: a.judge.Successes(),
		Failures:  a.judge.Failures(),
	}
	if len(a.apexHeights) > 0 {
		sess.MeanApex = stat.Mean(a.apexHeights, nil)
		sess.StddevApex = stat.StdDev(a.apexHeights, nil)
	}

	if err := a.config.Store.Sessions().Create(sess); err != nil {
		log.Printf("Failed to save session: %v", err)
		return
	}
	for _, t := range a.throws {
		t.SessionID = sess.ID
		if err := a.config.Store.Sessions().AddThrow(t); err != nil {
			log.Printf("Failed to save throw: %v", err)
		}
	}

	s := a.config.Settings
	s.BandY, s.BandLen = a.overlay.Band()
	if err := config.Save(a.config.Store, s); err != nil {
		log.Printf("Failed to save settings: %v", err)
	}

	log.Printf("Session saved: %d on target, %d off target", sess.Successes, sess.Failures)
}

// recordFeedback updates the session bookkeeping and notifies the sinks for
// one judged throw. at is the apex marker position on screen.
func (a *App) recordFeedback(now time.Time, fb judge.Feedback, at image.Point) {
	a.mu.Lock()
	a.apexHeights = append(a.apexHeights, fb.Throw.Height)
	a.throws = append(a.throws, &store.ThrowRecord{
		TrackID:    fb.Throw.TrackID,
		ApexHeight: fb.Throw.Height,
		Verdict:    fb.Verdict.String(),
		ThrownAt:   fb.Throw.At,
	})
	a.mu.Unlock()

	a.overlay.MarkThrow(now, fb.Throw.TrackID, at, fb.Verdict == judge.OnTarget)

	if a.config.Sounds != nil {
		a.config.Sounds.Enqueue(fb.Verdict)
	}
	if a.config.OnFeedback != nil {
		a.config.OnFeedback(fb)
	}
}

// adjustBand applies one keyboard calibration step and rebases the judge's
// band to the new geometry.
func (a *App) adjustBand(dy, dlen int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overlay.AdjustBandY(dy * bandStepPx)
	a.overlay.AdjustBandLen(dlen * bandStepPx)
	bandY, bandLen := a.overlay.Band()
	a.judge.SetBand(a.bandToHeights(bandY, bandLen))
}
