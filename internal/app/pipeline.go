package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/cascadecv/cascade/internal/capture"
	"github.com/cascadecv/cascade/internal/server"
	"github.com/cascadecv/cascade/internal/track"
)

// Run executes the frame loop until Stop is called or the debug window's
// quit key is pressed. Exactly one frame is in flight at a time: the whole
// pipeline (detect, associate, evaluate, judge, dispatch) completes before
// the next frame is read.
//
// Only configuration and collaborator startup failures are returned as
// errors; per-frame anomalies are logged and absorbed.
func (a *App) Run() error {
	if err := a.config.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	a.stopMu.Lock()
	a.stopCh = make(chan struct{})
	a.stopMu.Unlock()

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer a.config.Camera.Close()

	var window *gocv.Window
	if a.config.ShowWindow {
		window = gocv.NewWindow("Cascade")
		defer window.Close()
	}

	var recorder *capture.Recorder
	defer func() {
		if recorder != nil {
			recorder.Close()
		}
	}()

	first := true
	lastFrame := time.Now()

	for !a.stopping() {
		raw, ts, err := a.config.Camera.ReadFrame()
		if err != nil {
			if first {
				// No first frame means the capture device is unusable.
				return fmt.Errorf("read first frame: %w", err)
			}
			log.Printf("Error reading frame: %v", err)
			break
		}

		frame := a.scaled(raw)

		if first {
			a.setup(frame.Cols(), frame.Rows())
			first = false

			if a.config.Record {
				recorder, err = capture.NewRecorder(a.config.CaptureDir,
					float64(a.config.Settings.Framerate), frame.Cols(), frame.Rows())
				if err != nil {
					log.Printf("Recording disabled: %v", err)
				} else {
					log.Printf("Recording to %s", recorder.Path())
				}
			}
		}

		a.processFrame(&frame, ts, recorder)

		if a.config.Settings.Debug {
			elapsed := time.Since(lastFrame)
			if elapsed > 0 {
				a.overlay.DrawFPS(&frame, float64(time.Second)/float64(elapsed))
			}
		}
		lastFrame = time.Now()

		if window != nil {
			window.IMShow(frame)
			a.handleKey(window.WaitKey(1))
		}

		frame.Close()
	}

	a.finish()
	return nil
}

// scaled resizes a raw frame by the configured scale factor and releases
// the original.
func (a *App) scaled(raw *gocv.Mat) gocv.Mat {
	s := a.config.Settings.Scale
	dst := gocv.NewMat()
	gocv.Resize(*raw, &dst, image.Point{}, s, s, gocv.InterpolationLinear)
	raw.Close()
	return dst
}

// processFrame runs one full pipeline pass over a scaled frame.
func (a *App) processFrame(frame *gocv.Mat, ts time.Time, recorder *capture.Recorder) {
	detections, err := a.config.Detector.Detect(frame)
	if err != nil {
		// A detector fault is treated like a missed frame: the tracker's
		// loss handling absorbs it.
		log.Printf("Error detecting balls: %v", err)
		detections = nil
	}

	upd := a.tracker.Process(ts, detections)

	var events []server.FeedbackEvent
	for _, tr := range upd.Tracks {
		switch tr.State {
		case track.Active:
			if !tr.LastSeen.Equal(ts) {
				continue
			}
			throw, ok := a.evaluator.Observe(tr.ID, ts, a.heightOf(tr.LastPos.Y))
			if !ok {
				continue
			}

			a.mu.Lock()
			fb := a.judge.Classify(throw)
			a.mu.Unlock()

			at := image.Pt(tr.LastPos.X, a.frameHeight-int(throw.Height))
			a.recordFeedback(ts, fb, at)

			events = append(events, server.FeedbackEvent{
				TrackID: fb.Throw.TrackID,
				Verdict: fb.Verdict.String(),
				Height:  fb.Throw.Height,
			})

		case track.Lost:
			// An interrupted flight carries no valid apex signal.
			a.evaluator.Discard(tr.ID)
		}
	}
	for _, tr := range upd.Expired {
		a.evaluator.Discard(tr.ID)
	}

	if a.config.Settings.Debug {
		a.overlay.DrawDetections(frame, detections)
		a.overlay.DrawTracks(frame, upd.Tracks)
	}
	a.overlay.DrawBand(frame)
	a.overlay.DrawMarks(frame, ts)

	a.mu.Lock()
	successes, failures := a.judge.Successes(), a.judge.Failures()
	a.mu.Unlock()
	a.overlay.DrawCounters(frame, successes, failures)

	if recorder != nil {
		if err := recorder.Write(frame); err != nil {
			log.Printf("Error writing recording: %v", err)
		}
	}

	if a.config.Frames != nil {
		if buf, err := gocv.IMEncode(".jpg", *frame); err == nil {
			a.config.Frames.Set(buf.GetBytes())
			buf.Close()
		}
	}

	if a.config.Hub != nil {
		states := make([]server.TrackState, 0, len(upd.Tracks))
		for _, tr := range upd.Tracks {
			states = append(states, server.TrackState{
				ID:    tr.ID,
				X:     tr.LastPos.X,
				Y:     tr.LastPos.Y,
				State: tr.State.String(),
			})
		}
		a.config.Hub.Publish(server.LiveUpdate{
			Timestamp: ts.UnixMilli(),
			Tracks:    states,
			Feedback:  events,
		})
	}
}

// handleKey applies the live band calibration keys:
// w/s raise/lower the band, d/a lengthen/shorten it, q quits.
func (a *App) handleKey(key int) {
	switch key {
	case 'w':
		a.adjustBand(-1, 0)
	case 's':
		a.adjustBand(1, 0)
	case 'd':
		a.adjustBand(0, 1)
	case 'a':
		a.adjustBand(0, -1)
	case 'q':
		a.Stop()
	}
}
