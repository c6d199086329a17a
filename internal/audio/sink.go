// Package audio wraps Ebitengine's audio.Context/audio.Player around the
// core's sample-by-sample push interface (console.AudioSink), the
// counterpart to internal/graphics on the video side. The core pushes one
// f32 sample at a time from the main emulation goroutine; the player reads
// 16-bit stereo PCM from a separate goroutine Ebitengine drives internally,
// so the two sides only ever meet across a mutex-guarded ring buffer.
package audio

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// ringCapacity bounds how far the producer (PushSample) can run ahead of
// the consumer (the player's Read calls) before old samples are dropped.
// At 44.1kHz this is a little over a second of mono audio.
const ringCapacity = 65536

// Sink feeds NES APU samples into an Ebitengine audio player. It implements
// console.AudioSink without importing internal/console, keeping the
// dependency direction front-end -> core.
type Sink struct {
	context *audio.Context
	player  *audio.Player

	mu     sync.Mutex
	ring   []float32
	volume float64
}

// NewSink creates a Sink streaming into an Ebitengine audio context at
// sampleRate. volume is a linear gain in [0, 1], matching
// internal/app/config.go's AudioConfig.Volume.
func NewSink(context *audio.Context, sampleRate int, volume float64) (*Sink, error) {
	s := &Sink{
		context: context,
		ring:    make([]float32, 0, ringCapacity),
		volume:  volume,
	}

	player, err := context.NewPlayer(s)
	if err != nil {
		return nil, err
	}
	s.player = player
	s.player.SetVolume(volume)
	s.player.Play()
	return s, nil
}

// SetVolume adjusts output gain without interrupting playback.
func (s *Sink) SetVolume(volume float64) {
	s.volume = volume
	s.player.SetVolume(volume)
}

// Close stops playback.
func (s *Sink) Close() error {
	return s.player.Close()
}

// PushSample appends one f32 sample (console.AudioSink). Called from the
// single-threaded emulation loop once per tick; safe to call concurrently
// with Read because both sides hold the same mutex.
func (s *Sink) PushSample(sample float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ring) >= ringCapacity {
		// Consumer fell behind (e.g. the front-end was paused); drop the
		// oldest half rather than growing unbounded or blocking the core.
		copy(s.ring, s.ring[ringCapacity/2:])
		s.ring = s.ring[:ringCapacity/2]
	}
	s.ring = append(s.ring, sample)
}

// Read implements io.Reader, the streaming source audio.Context.NewPlayer
// consumes: 16-bit little-endian stereo PCM, the NES's mono output
// duplicated to both channels. When the producer hasn't kept up, silence is
// emitted instead of blocking, since the mixer goroutine must never stall.
func (s *Sink) Read(p []byte) (int, error) {
	frames := len(p) / 4 // 2 channels * 2 bytes/sample

	s.mu.Lock()
	avail := len(s.ring)
	if avail > frames {
		avail = frames
	}
	var take []float32
	if avail > 0 {
		take = make([]float32, avail)
		copy(take, s.ring[:avail])
		s.ring = s.ring[avail:]
	}
	s.mu.Unlock()

	for i := 0; i < frames; i++ {
		var v int16
		if i < len(take) {
			v = floatToPCM16(take[i])
		}
		off := i * 4
		p[off+0] = byte(v)
		p[off+1] = byte(v >> 8)
		p[off+2] = byte(v)
		p[off+3] = byte(v >> 8)
	}
	return frames * 4, nil
}

func floatToPCM16(sample float32) int16 {
	v := sample
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
