package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/cascadecv/cascade/internal/judge"
)

// queueSize bounds the feedback queue. A juggler produces at most a few
// throws per second, so a full queue means playback is badly behind and
// dropping is the right call.
const queueSize = 16

// Player plays the verdict tones through the system audio device.
// Enqueue never blocks; a dedicated goroutine drains the queue.
type Player struct {
	ctx   *oto.Context
	tones map[judge.Verdict][]byte

	queue chan judge.Verdict
	done  chan struct{}

	mu    sync.RWMutex
	muted bool
}

// NewPlayer opens the audio device and starts the playback goroutine.
func NewPlayer() (*Player, error) {
	ctx, ready, err := oto.NewContext(SampleRate, Channels, BitDepthBytes)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	p := &Player{
		ctx: ctx,
		tones: map[judge.Verdict][]byte{
			judge.OnTarget: Tone(ToneDuration, OnTargetHz),
			judge.TooLow:   Tone(ToneDuration, TooLowHz),
			judge.TooHigh:  Tone(ToneDuration, TooHighHz),
		},
		queue: make(chan judge.Verdict, queueSize),
		done:  make(chan struct{}),
	}

	go p.run()
	return p, nil
}

// Enqueue queues the tone for a verdict. Fire-and-forget: if the queue is
// full the event is dropped rather than stalling the frame loop.
func (p *Player) Enqueue(v judge.Verdict) {
	select {
	case p.queue <- v:
	default:
	}
}

// SetMuted enables or disables tone playback.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

// Muted returns whether tone playback is disabled.
func (p *Player) Muted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted
}

// Close stops the playback goroutine. Queued events are discarded.
func (p *Player) Close() error {
	close(p.done)
	return nil
}

// run drains the feedback queue, playing one tone at a time.
func (p *Player) run() {
	for {
		select {
		case <-p.done:
			return
		case v := <-p.queue:
			if p.Muted() {
				continue
			}
			p.play(v)
		}
	}
}

// play plays a single tone to completion.
func (p *Player) play(v judge.Verdict) {
	tone, ok := p.tones[v]
	if !ok {
		return
	}

	player := p.ctx.NewPlayer(bytes.NewReader(tone))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(5 * time.Millisecond)
	}
	player.Close()
}
