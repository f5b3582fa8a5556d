package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sixop/sixop/control"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext receives note events from a MIDI input device and hands
	// them to the player. The MIDI callback goroutine and the audio thread
	// talk through an SPSC queue, so the audio side never blocks.
	RTMIDIContext struct {
		driver     *rtmididrv.Driver
		currentIn  drivers.In
		stopListen func()
		sampleRate int

		events     *control.Queue[timestampedEvent]
		eventsBuf  []timestampedEvent
		eventIndex int
		startFrame int
		startSet   bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedEvent struct {
		frame int
		event control.MIDINoteEvent
	}
)

const eventBufferSize = 1024

// NewContext opens the driver. If that fails, the context has no devices.
func NewContext(sampleRate int) *RTMIDIContext {
	m := RTMIDIContext{
		events:     control.NewQueue[timestampedEvent](eventBufferSize),
		eventsBuf:  make([]timestampedEvent, 0, eventBufferSize),
		sampleRate: sampleRate,
	}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Support() control.MIDISupport {
	if m.driver == nil {
		return control.MIDISupportNoDriver
	}
	return control.MIDISupported
}

func (m *RTMIDIContext) Inputs(yield func(control.MIDIInputDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(RTMIDIDevice{context: m, in: in}) {
			break
		}
	}
}

// Open the input device, closing the currently open one if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	if c.HasDeviceOpen() {
		c.closeCurrent()
	}
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn = d.in
	c.stopListen = stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn != d.in {
		return nil
	}
	d.context.closeCurrent()
	return nil
}

func (d RTMIDIDevice) IsOpen() bool { return d.in.IsOpen() }

func (d RTMIDIDevice) String() string { return d.in.String() }

func (c *RTMIDIContext) closeCurrent() {
	if c.stopListen != nil {
		c.stopListen()
		c.stopListen = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// the first input at all if takeFirst is set.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	if namePrefix != "" {
		for input := range c.Inputs {
			if strings.HasPrefix(input.String(), namePrefix) {
				return input.Open()
			}
		}
	}
	if takeFirst {
		for input := range c.Inputs {
			return input.Open()
		}
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

// HandleMessage is called by the MIDI driver. Note and control change
// messages are timestamped
// and queued for the audio thread; if the queue is full, they are dropped.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	var event control.MIDINoteEvent
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		event = control.MIDINoteEvent{On: true, Channel: int(channel), Note: key, Velocity: velocity}
	case msg.GetNoteOff(&channel, &key, &velocity):
		event = control.MIDINoteEvent{Channel: int(channel), Note: key, Velocity: velocity}
	case msg.GetControlChange(&channel, &key, &velocity):
		event = control.MIDINoteEvent{Controller: true, Channel: int(channel), Note: key, Velocity: velocity}
	default:
		return
	}
	c.events.TryPush(timestampedEvent{
		frame: int(int64(timestampms) * int64(c.sampleRate) / 1000),
		event: event,
	})
}

// Dropped returns how many MIDI events were dropped because the audio
// thread was not consuming them.
func (c *RTMIDIContext) Dropped() uint64 { return c.events.Dropped() }

func (c *RTMIDIContext) NextEvent(frame int) (event control.MIDINoteEvent, ok bool) {
	for len(c.eventsBuf) < cap(c.eventsBuf) {
		msg, ok := c.events.TryPop()
		if !ok {
			break
		}
		c.eventsBuf = append(c.eventsBuf, msg)
		if !c.startSet {
			c.startFrame = msg.frame
			c.startSet = true
		}
	}
	if c.eventIndex > 0 && c.eventIndex <= len(c.eventsBuf) { // an event was consumed, check how badly we need to adjust the timing
		delta := frame + c.startFrame - c.eventsBuf[c.eventIndex-1].frame
		// delta is positive if we consumed the event too late, so drift the
		// internal clock towards the consumed event
		c.startFrame -= delta / 5
	}
	if c.eventIndex < len(c.eventsBuf) {
		m := c.eventsBuf[c.eventIndex]
		c.eventIndex++
		m.event.Frame = m.frame - c.startFrame
		return m.event, true
	}
	c.eventIndex = len(c.eventsBuf) + 1
	return control.MIDINoteEvent{}, false
}

func (c *RTMIDIContext) FinishBlock(frame int) {
	c.startFrame += frame
	if c.eventIndex > 0 {
		copy(c.eventsBuf, c.eventsBuf[c.eventIndex-1:])
		c.eventsBuf = c.eventsBuf[:len(c.eventsBuf)-c.eventIndex+1]
		if len(c.eventsBuf) > 0 {
			// the events were not consumed this round; adjust the start
			// frame towards them, so they are rendered at the same pace as
			// they were received
			delta := c.startFrame - c.eventsBuf[0].frame
			c.startFrame -= delta / 5
		}
	}
	c.eventIndex = 0
}
