// Package audio gives the juggler immediate tone feedback on each judged
// throw. Tones are synthesized sine bursts rather than decoded sound files,
// and playback runs on its own goroutine behind a bounded queue so the frame
// loop never waits on the audio device.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// PCM format of the synthesized tones.
const (
	SampleRate    = 44100
	Channels      = 1
	BitDepthBytes = 2
)

// Burst length and frequencies for the three verdicts.
const (
	ToneDuration = 100 * time.Millisecond
	OnTargetHz   = 1000
	TooLowHz     = 300
	TooHighHz    = 600
)

// Tone synthesizes a sine burst at the given frequency as little-endian
// int16 mono PCM.
func Tone(duration time.Duration, frequency float64) []byte {
	samples := int(float64(SampleRate) * duration.Seconds())
	buf := make([]byte, samples*BitDepthBytes)

	for i := 0; i < samples; i++ {
		s := math.Sin(2 * math.Pi * frequency * float64(i) / SampleRate)
		v := int16(s * float64(math.MaxInt16))
		binary.LittleEndian.PutUint16(buf[i*BitDepthBytes:], uint16(v))
	}

	return buf
}
