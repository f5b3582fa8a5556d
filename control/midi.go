package control

type (
	// PlayerProcessContext is given to the player when processing audio. It
	// tells which MIDI events happen during the current buffer.
	PlayerProcessContext interface {
		// NextEvent returns the next event, with its Frame relative to the
		// start of the buffer. frame is the frame the player has rendered
		// up to.
		NextEvent(frame int) (event MIDINoteEvent, ok bool)
		// FinishBlock tells that frame frames were rendered. An event
		// returned by NextEvent but beyond the end of the buffer is kept
		// for the next block.
		FinishBlock(frame int)
	}

	// MIDINoteEvent is a MIDI event triggering or releasing a note. When
	// Controller is set, it is a control change instead: Note holds the
	// controller number and Velocity its value.
	MIDINoteEvent struct {
		Frame      int
		On         bool
		Channel    int
		Note       byte
		Velocity   byte
		Controller bool
	}

	// MIDIContext lists the MIDI input devices available.
	MIDIContext interface {
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

// NullContext is a PlayerProcessContext without any events.
type NullContext struct{}

func (NullContext) NextEvent(frame int) (MIDINoteEvent, bool) { return MIDINoteEvent{}, false }
func (NullContext) FinishBlock(frame int)                     {}

// NullMIDIContext is a MIDIContext without any devices, used when MIDI
// support is not compiled in.
type NullMIDIContext struct{ NullContext }

func (NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (NullMIDIContext) Close()                                        {}
func (NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }

// EventContext is a PlayerProcessContext replaying a fixed list of events,
// with frames relative to the first processed block. Useful for offline
// rendering and tests.
type EventContext struct {
	Events []MIDINoteEvent // sorted by Frame
	start  int
	index  int
}

func (c *EventContext) NextEvent(frame int) (MIDINoteEvent, bool) {
	if c.index >= len(c.Events) {
		return MIDINoteEvent{}, false
	}
	e := c.Events[c.index]
	c.index++
	e.Frame -= c.start
	return e, true
}

func (c *EventContext) FinishBlock(frame int) {
	c.start += frame
	// the last event peeked may not have been rendered yet
	if c.index > 0 && c.Events[c.index-1].Frame >= c.start {
		c.index--
	}
}
