package control

import (
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/sixop/sixop"
	"github.com/viterin/vek/vek32"
)

type (
	// Player is the audio thread side of the synth. It owns the live copy
	// of the patch and the synth rendering it. The Model controls it through
	// the broker; MIDI events arrive through the PlayerProcessContext,
	// typically from the host or a MIDI device.
	//
	// None of the methods of Player block or allocate.
	Player struct {
		synth  sixop.Synth
		patch  *sixop.Patch
		broker *Broker
		host   HostNotifier
		dirty  bool

		events   []sixop.NoteEvent // events of the sub-block being rendered
		pending  []sixop.NoteEvent // notes sent by the model, played at the next block
		dropped  atomic.Uint64     // note events that did not fit in the buffers
		meterBuf [3][meterChunk]float32
	}

	// HostNotifier is told about the parameter changes applied by the
	// player, so that a plugin host can record them as automation.
	HostNotifier interface {
		BeginEdit(id uint32)
		SetParam(id uint32, value float32)
		EndEdit(id uint32)
	}
)

// MIDI controllers understood by the player.
const (
	ccVolume      = 7
	ccAllNotesOff = 123
)

const (
	maxEventsPerBlock = 256
	meterChunk        = 512
)

// NewPlayer creates a player rendering patch, which the player owns from now
// on. The model should have its own copy of the same patch.
func NewPlayer(broker *Broker, synther sixop.Synther, patch *sixop.Patch, sampleRate float64) *Player {
	return &Player{
		synth:   synther.Synth(patch, sampleRate),
		patch:   patch,
		broker:  broker,
		events:  make([]sixop.NoteEvent, 0, maxEventsPerBlock),
		pending: make([]sixop.NoteEvent, 0, maxEventsPerBlock),
	}
}

// SetHostNotifier sets the receiver of the edit gestures. It should be set
// before processing starts.
func (p *Player) SetHostNotifier(h HostNotifier) { p.host = h }

// Patch returns the live patch. It may only be accessed from the audio
// thread.
func (p *Player) Patch() *sixop.Patch { return p.patch }

// DroppedEvents returns how many note events were ignored because a block
// had too many. It is safe to call from any goroutine.
func (p *Player) DroppedEvents() uint64 { return p.dropped.Load() }

// Process renders audio to the given buffer. First, the messages from the
// model are applied, so the parameters stay fixed for the whole block. The
// rendering is then split at the frames of the MIDI events given by context.
// Finally, a meter message is sent to the model.
func (p *Player) Process(buffer sixop.AudioBuffer, context PlayerProcessContext) {
	p.processMessages()
	if p.dirty {
		p.synth.Update(p.patch)
		p.dirty = false
	}
	if len(buffer) == 0 {
		context.FinishBlock(0)
		return
	}
	p.events = append(p.events[:0], p.pending...)
	p.pending = p.pending[:0]
	frame := 0
	midi, midiOk := context.NextEvent(frame)
	for frame < len(buffer) {
		for midiOk && frame >= midi.Frame {
			if midi.Controller {
				p.controlChange(midi.Note, midi.Velocity)
			} else {
				p.addEvent(sixop.NoteEvent{On: midi.On, Note: midi.Note, Velocity: midi.Velocity})
			}
			midi, midiOk = context.NextEvent(frame)
		}
		if p.dirty {
			p.synth.Update(p.patch)
			p.dirty = false
		}
		end := len(buffer)
		if midiOk && midi.Frame < end {
			end = midi.Frame
		}
		p.synth.RenderBlock(buffer[frame:end], p.events)
		p.events = p.events[:0]
		frame = end
	}
	context.FinishBlock(frame)
	p.sendMeter(buffer)
}

func (p *Player) addEvent(e sixop.NoteEvent) {
	if len(p.events) == cap(p.events) {
		p.dropped.Add(1)
		return
	}
	p.events = append(p.events, e)
}

func (p *Player) controlChange(controller, value byte) {
	switch controller {
	case ccVolume:
		p.SetHostParam(sixop.MainID(sixop.MainLevel), float32(value)/127)
	case ccAllNotesOff:
		p.addEvent(sixop.NoteEvent{AllNotesOff: true})
	}
}

func (p *Player) processMessages() {
	for {
		msg, ok := p.broker.ToAudio.TryPop()
		if !ok {
			return
		}
		switch msg.Kind {
		case MsgSetParam:
			v, err := p.patch.Set(msg.ID, msg.Value)
			if err != nil {
				p.unknownParam(msg.ID)
				continue
			}
			p.dirty = true
			if p.host != nil {
				p.host.SetParam(msg.ID, v)
			}
		case MsgBeginEdit, MsgEndEdit:
			if _, ok := p.patch.IndexOf(msg.ID); !ok {
				p.unknownParam(msg.ID)
				continue
			}
			if p.host == nil {
				continue
			}
			if msg.Kind == MsgBeginEdit {
				p.host.BeginEdit(msg.ID)
			} else {
				p.host.EndEdit(msg.ID)
			}
		case MsgNoteOn, MsgNoteOff, MsgAllNotesOff:
			if len(p.pending) == cap(p.pending) {
				p.dropped.Add(1)
				continue
			}
			p.pending = append(p.pending, sixop.NoteEvent{
				On:          msg.Kind == MsgNoteOn,
				Note:        msg.Note,
				Velocity:    msg.Velocity,
				AllNotesOff: msg.Kind == MsgAllNotesOff,
			})
		case MsgPanic:
			p.pending = p.pending[:0]
			p.synth.Panic()
		}
	}
}

// SetHostParam applies a parameter change coming from the host, e.g.
// automation, and tells the model about it.
func (p *Player) SetHostParam(id uint32, value float32) {
	v, err := p.patch.Set(id, value)
	if err != nil {
		p.unknownParam(id)
		return
	}
	p.dirty = true
	p.broker.ToControl.TryPush(MsgToControl{Kind: MsgParamChanged, ID: id, Value: v})
}

func (p *Player) unknownParam(id uint32) {
	if sixop.DebugAsserts {
		panic(fmt.Sprintf("player: unknown parameter id %d", id))
	}
	p.broker.ToControl.TryPush(MsgToControl{Kind: MsgUnknownParam, ID: id})
}

// sendMeter measures the peaks and the RMS of the block.
func (p *Player) sendMeter(buffer sixop.AudioBuffer) {
	m := Meter{ActiveVoices: p.synth.ActiveVoices()}
	var sumSq float32
	for start := 0; start < len(buffer); start += meterChunk {
		chunk := buffer[start:min(start+meterChunk, len(buffer))]
		n := len(chunk)
		l, r, sq := p.meterBuf[0][:n], p.meterBuf[1][:n], p.meterBuf[2][:n]
		for i, s := range chunk {
			l[i], r[i] = s[0], s[1]
		}
		vek32.Mul_Into(sq, l, l)
		sumSq += vek32.Mean(sq) * float32(n)
		vek32.Mul_Into(sq, r, r)
		sumSq += vek32.Mean(sq) * float32(n)
		vek32.Abs_Inplace(l)
		vek32.Abs_Inplace(r)
		m.PeakL = max(m.PeakL, vek32.Max(l))
		m.PeakR = max(m.PeakR, vek32.Max(r))
	}
	if len(buffer) > 0 {
		m.RMS = math32.Sqrt(sumSq / float32(2*len(buffer)))
	}
	p.broker.ToControl.TryPush(MsgToControl{Kind: MsgMeter, Meter: m})
}
