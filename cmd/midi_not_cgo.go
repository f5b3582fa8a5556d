//go:build !cgo

package cmd

import (
	"errors"

	"github.com/sixop/sixop/control"
)

type nullMIDIContext struct{ control.NullMIDIContext }

func (nullMIDIContext) TryToOpenBy(prefix string, takeFirst bool) error {
	return errors.New("MIDI support was not compiled in (requires cgo)")
}

func NewMidiContext(sampleRate int) MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return nullMIDIContext{}
}
