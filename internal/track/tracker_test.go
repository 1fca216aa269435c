package track

import (
	"image"
	"testing"
	"time"

	"github.com/cascadecv/cascade/internal/detect"
)

// det builds a detection whose bounding box centers exactly on (x, y).
func det(x, y int) detect.Detection {
	return detect.Detection{
		Box:        image.Rect(x-5, y-5, x+5, y+5),
		Confidence: 0.9,
	}
}

// testConfig uses a 200ms reacquisition window and 50px range, matching the
// tracker's real-world defaults at scale 1.
func testConfig() Config {
	return Config{
		TrackTime:  200 * time.Millisecond,
		TrackRange: 50,
	}
}

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTracker_SpawnsTracksForUnmatchedDetections(t *testing.T) {
	tr := NewTracker(testConfig())

	upd := tr.Process(t0, []detect.Detection{det(100, 100), det(300, 100)})

	if len(upd.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(upd.Tracks))
	}

	for i, want := range []image.Point{{X: 100, Y: 100}, {X: 300, Y: 100}} {
		tk := upd.Tracks[i]
		if tk.ID != i {
			t.Errorf("track %d: expected ID %d, got %d", i, i, tk.ID)
		}
		if tk.State != Active {
			t.Errorf("track %d: expected Active, got %s", i, tk.State)
		}
		if tk.LastPos != want {
			t.Errorf("track %d: expected position %v, got %v", i, want, tk.LastPos)
		}
		if len(tk.History) != 1 {
			t.Errorf("track %d: expected 1 history entry, got %d", i, len(tk.History))
		}
	}
}

func TestTracker_FollowsNearestDetection(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100), det(300, 100)})

	// Both balls moved a little; each track should follow its own ball.
	t1 := t0.Add(33 * time.Millisecond)
	upd := tr.Process(t1, []detect.Detection{det(310, 90), det(110, 95)})

	if len(upd.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(upd.Tracks))
	}

	byID := tracksByID(upd.Tracks)
	if got := byID[0].LastPos; got != image.Pt(110, 95) {
		t.Errorf("track 0: expected (110,95), got %v", got)
	}
	if got := byID[1].LastPos; got != image.Pt(310, 90) {
		t.Errorf("track 1: expected (310,90), got %v", got)
	}
}

func TestTracker_MatchingDeterminism(t *testing.T) {
	// The same input must produce the same assignment on every run.
	run := func() map[int]image.Point {
		tr := NewTracker(testConfig())
		tr.Process(t0, []detect.Detection{det(100, 100), det(200, 100), det(300, 100)})
		t1 := t0.Add(33 * time.Millisecond)
		upd := tr.Process(t1, []detect.Detection{det(295, 110), det(105, 90), det(205, 95)})

		got := make(map[int]image.Point)
		for _, tk := range upd.Tracks {
			got[tk.ID] = tk.LastPos
		}
		return got
	}

	first := run()
	for i := 0; i < 10; i++ {
		again := run()
		for id, pos := range first {
			if again[id] != pos {
				t.Fatalf("run %d: track %d at %v, first run had %v", i, id, again[id], pos)
			}
		}
	}
}

func TestTracker_TieBreakPrefersLowerID(t *testing.T) {
	tr := NewTracker(testConfig())

	// Two tracks equidistant from a single detection.
	tr.Process(t0, []detect.Detection{det(100, 100), det(140, 100)})

	t1 := t0.Add(33 * time.Millisecond)
	upd := tr.Process(t1, []detect.Detection{det(120, 100)})

	byID := tracksByID(upd.Tracks)
	if byID[0].State != Active || byID[0].LastPos != image.Pt(120, 100) {
		t.Errorf("expected track 0 to win the tie, got state %s at %v", byID[0].State, byID[0].LastPos)
	}
	if byID[1].State != Lost {
		t.Errorf("expected track 1 to lose the tie and go lost, got %s", byID[1].State)
	}
}

func TestTracker_ActiveToLostOnMiss(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100)})

	// The detector missed the ball this frame.
	t1 := t0.Add(33 * time.Millisecond)
	upd := tr.Process(t1, nil)

	if len(upd.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(upd.Tracks))
	}

	tk := upd.Tracks[0]
	if tk.State != Lost {
		t.Errorf("expected Lost, got %s", tk.State)
	}
	// The reacquisition anchors stay frozen at the last successful match.
	if !tk.LastSeen.Equal(t0) {
		t.Errorf("expected LastSeen %v, got %v", t0, tk.LastSeen)
	}
	if tk.LastPos != image.Pt(100, 100) {
		t.Errorf("expected anchor (100,100), got %v", tk.LastPos)
	}
	if len(tk.History) != 1 {
		t.Errorf("expected frozen history of 1 entry, got %d", len(tk.History))
	}
}

func TestTracker_ReacquisitionBoundary(t *testing.T) {
	tests := []struct {
		name          string
		gap           time.Duration // since last seen
		distance      int           // from anchor, along x
		wantReacquire bool
	}{
		{
			name:          "inside both windows",
			gap:           190 * time.Millisecond,
			distance:      45,
			wantReacquire: true,
		},
		{
			name:          "time window exceeded",
			gap:           210 * time.Millisecond,
			distance:      10,
			wantReacquire: false,
		},
		{
			name:          "range window exceeded",
			gap:           100 * time.Millisecond,
			distance:      55,
			wantReacquire: false,
		},
		{
			name:          "exactly on both bounds",
			gap:           200 * time.Millisecond,
			distance:      50,
			wantReacquire: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(testConfig())

			tr.Process(t0, []detect.Detection{det(100, 100)})

			// Lose the ball one frame later.
			tr.Process(t0.Add(33*time.Millisecond), nil)

			// The ball reappears after the gap, offset from the anchor.
			upd := tr.Process(t0.Add(tt.gap), []detect.Detection{det(100+tt.distance, 100)})

			byID := tracksByID(upd.Tracks)
			if tt.wantReacquire {
				tk, ok := byID[0]
				if !ok {
					t.Fatal("expected track 0 to survive")
				}
				if tk.State != Active {
					t.Errorf("expected reacquired track to be Active, got %s", tk.State)
				}
				if len(upd.Tracks) != 1 {
					t.Errorf("expected no new track to spawn, got %d tracks", len(upd.Tracks))
				}
			} else {
				// The detection falls through and spawns a fresh identity.
				if _, ok := byID[1]; !ok {
					t.Error("expected the unmatched detection to spawn track 1")
				}
				if tk, ok := byID[0]; ok && tk.State == Active {
					t.Error("track 0 must not reacquire outside the windows")
				}
			}
		})
	}
}

func TestTracker_ExpiryIsTerminal(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100)})
	tr.Process(t0.Add(33*time.Millisecond), nil)

	// Past the time window with no detection: the track expires.
	upd := tr.Process(t0.Add(300*time.Millisecond), nil)

	if len(upd.Expired) != 1 || upd.Expired[0].ID != 0 {
		t.Fatalf("expected track 0 to expire, got %v", upd.Expired)
	}
	if upd.Expired[0].State != Expired {
		t.Errorf("expected Expired state, got %s", upd.Expired[0].State)
	}
	if len(upd.Tracks) != 0 {
		t.Errorf("expected empty live set, got %d tracks", len(upd.Tracks))
	}

	// A detection at the old anchor must create a new identity, never
	// resurrect the expired one.
	upd = tr.Process(t0.Add(330*time.Millisecond), []detect.Detection{det(100, 100)})

	if len(upd.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(upd.Tracks))
	}
	if upd.Tracks[0].ID != 1 {
		t.Errorf("expected fresh ID 1, got %d", upd.Tracks[0].ID)
	}
}

func TestTracker_ReacquisitionRestoresHistory(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100)})
	tr.Process(t0.Add(33*time.Millisecond), nil)

	t2 := t0.Add(100 * time.Millisecond)
	upd := tr.Process(t2, []detect.Detection{det(110, 80)})

	tk := upd.Tracks[0]
	if tk.State != Active {
		t.Fatalf("expected Active after reacquisition, got %s", tk.State)
	}
	if len(tk.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(tk.History))
	}
	if !tk.LastSeen.Equal(t2) {
		t.Errorf("expected LastSeen updated to %v, got %v", t2, tk.LastSeen)
	}
	if tk.LastPos != image.Pt(110, 80) {
		t.Errorf("expected anchor moved to (110,80), got %v", tk.LastPos)
	}
}

func TestTracker_SpuriousDetectionGetsOwnTrack(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100)})

	// A false positive far away must not disturb the existing track.
	t1 := t0.Add(33 * time.Millisecond)
	upd := tr.Process(t1, []detect.Detection{det(105, 100), det(500, 400)})

	if len(upd.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(upd.Tracks))
	}

	byID := tracksByID(upd.Tracks)
	if byID[0].LastPos != image.Pt(105, 100) {
		t.Errorf("track 0 should follow its ball, got %v", byID[0].LastPos)
	}
	if byID[1].LastPos != image.Pt(500, 400) {
		t.Errorf("expected spurious detection at (500,400) on its own track, got %v", byID[1].LastPos)
	}
}

func TestTrack_HistoryStrictlyOrdered(t *testing.T) {
	tr := NewTracker(testConfig())

	tr.Process(t0, []detect.Detection{det(100, 100)})

	// A non-advancing timestamp must not produce a duplicate history entry.
	upd := tr.Process(t0, []detect.Detection{det(102, 98)})

	tk := upd.Tracks[0]
	if len(tk.History) != 1 {
		t.Errorf("expected duplicate timestamp to be dropped, got %d entries", len(tk.History))
	}

	t1 := t0.Add(33 * time.Millisecond)
	upd = tr.Process(t1, []detect.Detection{det(104, 96)})

	tk = upd.Tracks[0]
	for i := 1; i < len(tk.History); i++ {
		if !tk.History[i].Time.After(tk.History[i-1].Time) {
			t.Errorf("history entry %d not strictly after its predecessor", i)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Active, "active"},
		{Lost, "lost"},
		{Expired, "expired"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// tracksByID indexes a track slice by ID for easier assertions.
func tracksByID(tracks []*Track) map[int]*Track {
	byID := make(map[int]*Track)
	for _, tk := range tracks {
		byID[tk.ID] = tk
	}
	return byID
}
