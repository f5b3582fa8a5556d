package oto

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sixop/sixop"
)

type (
	// OtoContext is a sixop.AudioContext playing to the default audio
	// device.
	OtoContext struct {
		ctx *oto.Context
	}

	// OtoOutput pulls audio from a sixop.AudioSource whenever the device
	// needs more and converts it to little-endian float32 bytes.
	OtoOutput struct {
		player *oto.Player
		source sixop.AudioSource
		buffer sixop.AudioBuffer
		mu     sync.Mutex
		err    error
		once   sync.Once
		done   chan struct{}
	}
)

const bytesPerFrame = 8 // two float32 channels

// NewContext opens the audio device. It blocks until the device is ready.
func NewContext(sampleRate int) (*OtoContext, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx}, nil
}

// Play starts playing source. The source is called from the audio goroutine
// of oto.
func (c *OtoContext) Play(source sixop.AudioSource) sixop.CloserWaiter {
	o := &OtoOutput{source: source, done: make(chan struct{})}
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	return o
}

// Close suspends the audio device. oto contexts cannot be recreated, so
// this only stops the output.
func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read implements io.Reader for the oto player.
func (o *OtoOutput) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if cap(o.buffer) < frames {
		o.buffer = make(sixop.AudioBuffer, frames)
	}
	buf := o.buffer[:frames]
	if err := o.source.ReadAudio(buf); err != nil {
		o.mu.Lock()
		o.err = err
		o.mu.Unlock()
		o.stop()
		return 0, err
	}
	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(s[0]))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(s[1]))
	}
	return frames * bytesPerFrame, nil
}

// Close stops the playback. It returns the error that stopped the source, if
// any.
func (o *OtoOutput) Close() error {
	o.stop()
	err := o.player.Close()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// Wait blocks until the playback is closed or the source fails.
func (o *OtoOutput) Wait() {
	<-o.done
}

func (o *OtoOutput) stop() {
	o.once.Do(func() { close(o.done) })
}
