package sixop

import (
	"errors"
	"fmt"
	"slices"
)

type (
	// Synth renders audio for a patch. All methods are meant to be called
	// from the audio thread only; none of them block or allocate.
	Synth interface {
		// RenderBlock fills the whole buffer with audio. events are the note
		// events of this block, sorted by Frame, relative to the start of the
		// buffer; each is applied exactly at its frame.
		RenderBlock(buffer AudioBuffer, events []NoteEvent)
		// Update tells the synth to take the parameters from patch, starting
		// from the next rendered sample. The synth keeps reading the patch,
		// so it should call Update again whenever the values change.
		Update(patch *Patch)
		// Panic silences all voices immediately.
		Panic()
		// ActiveVoices returns the number of voices that are either sounding
		// or releasing.
		ActiveVoices() int
	}

	// Synther creates synths, e.g. for offline rendering.
	Synther interface {
		Name() string
		Synth(patch *Patch, sampleRate float64) Synth
	}

	// NoteEvent triggers or releases a note. Frame is relative to the start of
	// the current buffer when passed to RenderBlock, and absolute when passed
	// to Render.
	NoteEvent struct {
		Frame    int
		On       bool
		Note     byte
		Velocity byte
		// AllNotesOff releases every held note; On, Note and Velocity are
		// ignored.
		AllNotesOff bool
	}
)

// Render renders frames samples non-realtime with synth, triggering the events
// at their absolute frames. The rendering is split into blocks of blockSize
// samples, like a host would do.
func Render(synth Synth, events []NoteEvent, frames, blockSize int) (AudioBuffer, error) {
	if frames < 0 {
		return nil, errors.New("cannot render a negative number of frames")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b NoteEvent) int { return a.Frame - b.Frame })
	buffer := make(AudioBuffer, frames)
	blockEvents := make([]NoteEvent, 0, len(sorted))
	for start := 0; start < frames; start += blockSize {
		end := min(start+blockSize, frames)
		blockEvents = blockEvents[:0]
		for len(sorted) > 0 && sorted[0].Frame < end {
			e := sorted[0]
			e.Frame = max(e.Frame-start, 0)
			blockEvents = append(blockEvents, e)
			sorted = sorted[1:]
		}
		synth.RenderBlock(buffer[start:end], blockEvents)
	}
	return buffer, nil
}
