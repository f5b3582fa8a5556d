package cmd

import "github.com/sixop/sixop/control"

// MIDIContext is a MIDI input that also feeds the events to the player.
type MIDIContext interface {
	control.PlayerProcessContext
	control.MIDIContext
	// TryToOpenBy opens the first input whose name starts with prefix. If
	// none matches and takeFirst is true, the first input is opened.
	TryToOpenBy(prefix string, takeFirst bool) error
}
