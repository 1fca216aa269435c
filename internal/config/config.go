// Package config holds the user-configurable settings for the Cascade
// juggling trainer and their persistence through the store.
package config

import (
	"fmt"
	"strconv"

	"github.com/cascadecv/cascade/internal/store"
)

// Settings keys used in the persisted key-value store.
const (
	keyScale      = "scale"
	keyDebug      = "debug"
	keyTrackTime  = "tracktime"
	keyTrackRange = "trackrange"
	keyFramerate  = "framerate"
	keyBandY      = "band_y"
	keyBandLen    = "band_len"
)

// Settings holds all user-configurable settings. Loaded once at startup and
// treated as immutable for the process lifetime, except the band calibration
// fields which the HUD keyboard adjustment mutates and which are written back
// on exit.
type Settings struct {
	// Scale is the window resize factor applied to captured frames.
	Scale float64
	// Debug enables the overlay (boxes, track IDs, FPS) and verbose logging.
	Debug bool
	// TrackTime is the maximum time in seconds a lost ball may wait for
	// reacquisition before its track expires.
	TrackTime float64
	// TrackRange is the maximum pixel distance from the last seen position
	// accepted when reacquiring a lost ball.
	TrackRange int
	// Framerate is the frames-per-second of the recorded capture video.
	Framerate int
	// BandY is the top edge of the target height band in scaled image-y
	// pixels. Zero means "derive from frame height at startup".
	BandY int
	// BandLen is the vertical extent of the target band in pixels.
	// Zero means "derive from frame height at startup".
	BandLen int
}

// Defaults returns the built-in default settings. The band fields are left
// zero so the application derives them from the actual frame geometry.
func Defaults() Settings {
	return Settings{
		Scale:      0.4,
		Debug:      false,
		TrackTime:  0.2,
		TrackRange: 150,
		Framerate:  24,
		BandY:      0,
		BandLen:    0,
	}
}

// Validate checks the settings for values that would break the frame loop.
// It returns a descriptive error for the first invalid field found.
func (s Settings) Validate() error {
	if s.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", s.Scale)
	}
	if s.TrackTime <= 0 {
		return fmt.Errorf("tracktime must be positive, got %g", s.TrackTime)
	}
	if s.TrackRange <= 0 {
		return fmt.Errorf("trackrange must be positive, got %d", s.TrackRange)
	}
	if s.Framerate <= 0 {
		return fmt.Errorf("framerate must be positive, got %d", s.Framerate)
	}
	if s.BandY < 0 {
		return fmt.Errorf("band top edge must not be negative, got %d", s.BandY)
	}
	if s.BandLen < 0 {
		return fmt.Errorf("band length must not be negative, got %d", s.BandLen)
	}
	return nil
}

// Load reads settings from the store, falling back to defaults for any key
// that has never been persisted. Malformed stored values are an error rather
// than a silent fallback.
func Load(st *store.Store) (Settings, error) {
	s := Defaults()

	stored, err := st.Settings().All()
	if err != nil {
		return s, fmt.Errorf("load settings: %w", err)
	}

	for key, value := range stored {
		switch key {
		case keyScale:
			if s.Scale, err = strconv.ParseFloat(value, 64); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyDebug:
			if s.Debug, err = strconv.ParseBool(value); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyTrackTime:
			if s.TrackTime, err = strconv.ParseFloat(value, 64); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyTrackRange:
			if s.TrackRange, err = strconv.Atoi(value); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyFramerate:
			if s.Framerate, err = strconv.Atoi(value); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyBandY:
			if s.BandY, err = strconv.Atoi(value); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		case keyBandLen:
			if s.BandLen, err = strconv.Atoi(value); err != nil {
				return s, fmt.Errorf("stored setting %q: %w", key, err)
			}
		}
	}

	return s, nil
}

// Save writes all settings to the store.
func Save(st *store.Store, s Settings) error {
	repo := st.Settings()

	values := map[string]string{
		keyScale:      strconv.FormatFloat(s.Scale, 'g', -1, 64),
		keyDebug:      strconv.FormatBool(s.Debug),
		keyTrackTime:  strconv.FormatFloat(s.TrackTime, 'g', -1, 64),
		keyTrackRange: strconv.Itoa(s.TrackRange),
		keyFramerate:  strconv.Itoa(s.Framerate),
		keyBandY:      strconv.Itoa(s.BandY),
		keyBandLen:    strconv.Itoa(s.BandLen),
	}

	for key, value := range values {
		if err := repo.Set(key, value); err != nil {
			return fmt.Errorf("save setting %q: %w", key, err)
		}
	}

	return nil
}

// Reset clears all persisted settings and writes the built-in defaults back.
// Takes effect on the next load.
func Reset(st *store.Store) error {
	if err := st.Settings().Clear(); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return Save(st, Defaults())
}
