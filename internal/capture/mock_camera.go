package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing. Frame timestamps
// advance by a fixed step per frame so tracking tests are deterministic.
type MockCamera struct {
	frames  []*gocv.Mat
	step    time.Duration
	now     time.Time
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
}

// NewMockCamera creates a MockCamera over the given frames. Timestamps start
// at an arbitrary fixed instant and advance by step per frame.
func NewMockCamera(frames []*gocv.Mat, step time.Duration, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		step:   step,
		loop:   loop,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	c.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, time.Time{}, fmt.Errorf("camera not open")
	}

	if len(c.frames) == 0 {
		return nil, time.Time{}, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			return nil, time.Time{}, fmt.Errorf("no more frames")
		}
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++

	ts := c.now
	c.now = c.now.Add(c.step)

	return &frame, ts, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset restarts playback from the beginning.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
	c.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}
