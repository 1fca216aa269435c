package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// Recorder writes rendered frames to a timestamped AVI file at the
// configured framerate.
type Recorder struct {
	writer *gocv.VideoWriter
	path   string
}

// NewRecorder creates the capture directory if needed and opens a new
// XVID-encoded video file named after the current time.
func NewRecorder(dir string, fps float64, width, height int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}

	path := filepath.Join(dir, "capture_"+time.Now().Format("20060102-150405")+".avi")
	writer, err := gocv.VideoWriterFile(path, "XVID", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer: %w", err)
	}

	return &Recorder{writer: writer, path: path}, nil
}

// Write appends one frame to the recording.
func (r *Recorder) Write(frame *gocv.Mat) error {
	return r.writer.Write(*frame)
}

// Path returns the recording file path.
func (r *Recorder) Path() string {
	return r.path
}

// Close finalizes the video file.
func (r *Recorder) Close() error {
	return r.writer.Close()
}
