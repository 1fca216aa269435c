package config

import (
	"path/filepath"
	"testing"

	"github.com/cascadecv/cascade/internal/store"
)

// testStore creates a store backed by a temporary database file.
func testStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func TestDefaults(t *testing.T) {
	s := Defaults()

	if s.Scale != 0.4 {
		t.Errorf("expected default scale 0.4, got %g", s.Scale)
	}
	if s.Debug {
		t.Error("expected debug off by default")
	}
	if s.TrackTime != 0.2 {
		t.Errorf("expected default tracktime 0.2, got %g", s.TrackTime)
	}
	if s.TrackRange != 150 {
		t.Errorf("expected default trackrange 150, got %d", s.TrackRange)
	}
	if s.Framerate != 24 {
		t.Errorf("expected default framerate 24, got %d", s.Framerate)
	}
	// Zero band fields mean "derive from the frame geometry at startup".
	if s.BandY != 0 || s.BandLen != 0 {
		t.Errorf("expected zero band defaults, got y=%d len=%d", s.BandY, s.BandLen)
	}

	if err := s.Validate(); err != nil {
		t.Errorf("defaults must validate, got: %v", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero scale", func(s *Settings) { s.Scale = 0 }},
		{"negative scale", func(s *Settings) { s.Scale = -0.5 }},
		{"zero tracktime", func(s *Settings) { s.TrackTime = 0 }},
		{"negative tracktime", func(s *Settings) { s.TrackTime = -1 }},
		{"zero trackrange", func(s *Settings) { s.TrackRange = 0 }},
		{"zero framerate", func(s *Settings) { s.Framerate = 0 }},
		{"negative band top", func(s *Settings) { s.BandY = -1 }},
		{"negative band length", func(s *Settings) { s.BandLen = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)

			if err := s.Validate(); err == nil {
				t.Errorf("expected validation error for %+v", s)
			}
		})
	}
}

func TestLoad_EmptyStoreReturnsDefaults(t *testing.T) {
	st := testStore(t)

	s, err := Load(st)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s != Defaults() {
		t.Errorf("expected defaults from an empty store, got %+v", s)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := testStore(t)

	saved := Settings{
		Scale:      0.75,
		Debug:      true,
		TrackTime:  0.35,
		TrackRange: 200,
		Framerate:  30,
		BandY:      110,
		BandLen:    52,
	}

	if err := Save(st, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(st)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded != saved {
		t.Errorf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", saved, loaded)
	}
}

func TestLoad_MalformedStoredValue(t *testing.T) {
	st := testStore(t)

	// A corrupted value must surface as an error, not silently fall back.
	if err := st.Settings().Set("tracktime", "not-a-number"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := Load(st); err == nil {
		t.Error("expected an error for a malformed stored value")
	}
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	st := testStore(t)

	// Keys from a newer or older version must not break loading.
	if err := st.Settings().Set("future_knob", "whatever"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s, err := Load(st)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s != Defaults() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestReset(t *testing.T) {
	st := testStore(t)

	modified := Defaults()
	modified.Scale = 0.9
	modified.TrackRange = 999
	if err := Save(st, modified); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := Reset(st); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	loaded, err := Load(st)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != Defaults() {
		t.Errorf("expected defaults after reset, got %+v", loaded)
	}
}
