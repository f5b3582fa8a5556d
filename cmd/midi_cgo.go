//go:build cgo

package cmd

import "github.com/sixop/sixop/control/gomidi"

func NewMidiContext(sampleRate int) MIDIContext {
	return gomidi.NewContext(sampleRate)
}
