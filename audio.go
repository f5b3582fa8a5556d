package sixop

import "errors"

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// AudioSource is something that can fill audio buffers, e.g. a player
	// rendering a synth. ReadAudio should always fill the whole buffer.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) error
	}

	// AudioSourceFunc adapts a function into an AudioSource.
	AudioSourceFunc func(buffer AudioBuffer) error

	// AudioContext represents an audio device, which can start playing an
	// AudioSource.
	AudioContext interface {
		Play(source AudioSource) CloserWaiter
		Close() error
	}

	// CloserWaiter is a handle to something being played. Close stops it;
	// Wait blocks until it has stopped.
	CloserWaiter interface {
		Close() error
		Wait()
	}
)

// Fill sets every sample of the buffer to v.
func (buffer AudioBuffer) Fill(v [2]float32) {
	for i := range buffer {
		buffer[i] = v
	}
}

func (f AudioSourceFunc) ReadAudio(buffer AudioBuffer) error { return f(buffer) }

// ErrEndOfSource is returned by an AudioSource that has nothing more to play.
var ErrEndOfSource = errors.New("end of audio source")

// Source returns an AudioSource playing the buffer once. After the end of
// the buffer, it fills silence and returns ErrEndOfSource.
func (buffer AudioBuffer) Source() AudioSource {
	return &bufferSource{buffer: buffer}
}

type bufferSource struct {
	buffer AudioBuffer
	pos    int
}

func (s *bufferSource) ReadAudio(buffer AudioBuffer) error {
	n := copy(buffer, s.buffer[s.pos:])
	s.pos += n
	buffer[n:].Fill([2]float32{})
	if n < len(buffer) {
		return ErrEndOfSource
	}
	return nil
}
