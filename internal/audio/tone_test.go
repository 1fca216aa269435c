package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestTone_Length(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     int // bytes
	}{
		{100 * time.Millisecond, 4410 * BitDepthBytes},
		{time.Second, SampleRate * BitDepthBytes},
		{0, 0},
	}

	for _, tt := range tests {
		buf := Tone(tt.duration, OnTargetHz)
		if len(buf) != tt.want {
			t.Errorf("duration %v: expected %d bytes, got %d", tt.duration, tt.want, len(buf))
		}
	}
}

func TestTone_Waveform(t *testing.T) {
	buf := Tone(ToneDuration, OnTargetHz)

	// The sine starts at zero phase.
	if first := int16(binary.LittleEndian.Uint16(buf)); first != 0 {
		t.Errorf("expected first sample 0, got %d", first)
	}

	// A quarter period in, a 1000Hz sine is near its positive peak.
	quarter := SampleRate / (4 * OnTargetHz)
	peak := int16(binary.LittleEndian.Uint16(buf[quarter*BitDepthBytes:]))
	if peak < math.MaxInt16*9/10 {
		t.Errorf("expected a near-peak sample at a quarter period, got %d", peak)
	}

	// The signal actually oscillates: some samples must be negative.
	negative := false
	for i := 0; i < len(buf); i += BitDepthBytes {
		if int16(binary.LittleEndian.Uint16(buf[i:])) < 0 {
			negative = true
			break
		}
	}
	if !negative {
		t.Error("expected the waveform to cross below zero")
	}
}

func TestTone_FrequenciesDiffer(t *testing.T) {
	// The three verdict tones must be audibly distinct signals.
	low := Tone(ToneDuration, TooLowHz)
	mid := Tone(ToneDuration, TooHighHz)
	high := Tone(ToneDuration, OnTargetHz)

	if zeroCrossings(low) >= zeroCrossings(mid) || zeroCrossings(mid) >= zeroCrossings(high) {
		t.Errorf("expected crossing counts to order by frequency: %d (300Hz) < %d (600Hz) < %d (1000Hz)",
			zeroCrossings(low), zeroCrossings(mid), zeroCrossings(high))
	}
}

// zeroCrossings counts sign changes in an int16 PCM buffer.
func zeroCrossings(buf []byte) int {
	crossings := 0
	var prev int16
	for i := 0; i < len(buf); i += BitDepthBytes {
		s := int16(binary.LittleEndian.Uint16(buf[i:]))
		if (prev < 0 && s >= 0) || (prev >= 0 && s < 0) {
			crossings++
		}
		prev = s
	}
	return crossings
}
