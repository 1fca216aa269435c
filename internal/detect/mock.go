package detect

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a scripted sequence of per-frame detection results,
// which lets tests simulate detector misses and spurious detections.
type MockDetector struct {
	script [][]Detection
	index  int
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetScript sets the per-frame detection results. Each call to Detect
// consumes one entry; once the script is exhausted, Detect returns no
// detections (a missed frame).
func (m *MockDetector) SetScript(script [][]Detection) {
	m.script = script
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the next scripted frame's detections.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.index >= len(m.script) {
		return nil, nil
	}
	dets := m.script[m.index]
	m.index++
	return dets, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
