// Package detect wraps the ball detection model behind a small interface.
// The model is an opaque collaborator: one frame in, zero or more candidate
// ball detections out. No recall is guaranteed; callers must tolerate missed
// and spurious detections on every frame.
package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Detection is a single frame's raw evidence of a ball. Produced and
// consumed within one frame, never persisted.
type Detection struct {
	// Box is the axis-aligned bounding rectangle in image coordinates.
	Box image.Rectangle
	// Confidence is the model's score for this detection, in [0, 1].
	Confidence float64
}

// Centroid returns the center point of the detection's bounding box.
func (d Detection) Centroid() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

// Detector defines the interface for ball detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns candidate ball detections.
	// An empty slice is a valid result (no balls found).
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for ball detection.
type Config struct {
	// ConfThreshold is the minimum confidence for a raw model output to be
	// considered a detection.
	ConfThreshold float32

	// NMSThreshold is the overlap threshold used by non-maximum suppression
	// to collapse duplicate boxes.
	NMSThreshold float32
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ConfThreshold: 0.3,
		NMSThreshold:  0.4,
	}
}
