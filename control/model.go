package control

import (
	"errors"
	"fmt"

	"github.com/sixop/sixop"
)

// Model is the control thread side of the synth: it owns the control copy of
// the patch and keeps the audio thread in sync by sending messages through
// the broker. All methods must be called from the same goroutine. They never
// wait for the audio thread.
type Model struct {
	patch   *sixop.Patch
	name    string
	broker  *Broker
	backlog []MsgToAudio // messages rejected by a full queue, oldest first
	meter   Meter
	changed bool

	// Diagnostics receives reports about defects, e.g. unknown parameter
	// ids. Nil means silent.
	Diagnostics func(format string, args ...any)
}

// NewModel creates a model owning patch. The player should be given a copy
// of the same patch.
func NewModel(broker *Broker, patch *sixop.Patch) *Model {
	return &Model{patch: patch, broker: broker}
}

// Patch returns the control copy of the patch. It must not be modified
// directly; use SetParam.
func (m *Model) Patch() *sixop.Patch { return m.patch }

// Name returns the name of the patch.
func (m *Model) Name() string { return m.name }

func (m *Model) SetName(name string) {
	m.name = name
	m.changed = true
}

// Changed reports if the patch has been modified since it was last loaded
// or saved.
func (m *Model) Changed() bool { return m.changed }

// Meter returns the latest meter reading received from the audio thread.
func (m *Model) Meter() Meter { return m.meter }

// Backlog returns the number of messages waiting for room in the queue.
func (m *Model) Backlog() int { return len(m.backlog) }

// Dropped returns how many pushes to the audio thread were rejected because
// the queue was full. Rejected messages are kept and re-sent by Poll.
func (m *Model) Dropped() uint64 { return m.broker.ToAudio.Dropped() }

// SetParam changes a parameter and sends the clamped value to the audio
// thread.
func (m *Model) SetParam(id uint32, value float32) error {
	v, err := m.patch.Set(id, value)
	if err != nil {
		m.unknownParam(id)
		return err
	}
	m.changed = true
	m.send(MsgToAudio{Kind: MsgSetParam, ID: id, Value: v})
	return nil
}

// BeginEdit starts a continuous edit gesture of a parameter, e.g. dragging a
// knob. It should be followed by SetParams and finally EndEdit.
func (m *Model) BeginEdit(id uint32) error { return m.gesture(MsgBeginEdit, id) }

// EndEdit ends an edit gesture started with BeginEdit.
func (m *Model) EndEdit(id uint32) error { return m.gesture(MsgEndEdit, id) }

func (m *Model) gesture(kind AudioMsgKind, id uint32) error {
	if _, ok := m.patch.IndexOf(id); !ok {
		m.unknownParam(id)
		return fmt.Errorf("%v %d: %w", kind, id, sixop.ErrUnknownParam)
	}
	m.send(MsgToAudio{Kind: kind, ID: id})
	return nil
}

func (m *Model) NoteOn(note, velocity byte) {
	m.send(MsgToAudio{Kind: MsgNoteOn, Note: note, Velocity: velocity})
}

func (m *Model) NoteOff(note byte) {
	m.send(MsgToAudio{Kind: MsgNoteOff, Note: note})
}

// AllNotesOff releases every held note, letting them ring out.
func (m *Model) AllNotesOff() {
	m.send(MsgToAudio{Kind: MsgAllNotesOff})
}

// Panic silences all voices.
func (m *Model) Panic() {
	m.send(MsgToAudio{Kind: MsgPanic})
}

// Poll processes the messages from the audio thread and retries sending the
// backlog. It should be called periodically, e.g. from a timer.
func (m *Model) Poll() {
	m.broker.ToControl.Drain(m.handle)
	m.flush()
}

func (m *Model) handle(msg MsgToControl) {
	switch msg.Kind {
	case MsgParamChanged:
		if _, err := m.patch.Set(msg.ID, msg.Value); err != nil {
			m.unknownParam(msg.ID)
			return
		}
		m.changed = true
	case MsgMeter:
		m.meter = msg.Meter
	case MsgUnknownParam:
		m.logf("audio thread received an unknown parameter id %d", msg.ID)
	}
}

// Load replaces the patch with a serialized state and sends every value to
// the audio thread. If the data cannot be read at all, the patch is left
// untouched. If only some entries are bad, the rest is applied and the
// returned error is a *sixop.StateError.
func (m *Model) Load(data []byte) error {
	p := m.patch.Copy()
	name, err := p.DeserializeNamed(data)
	var stateErr *sixop.StateError
	if err != nil && !errors.As(err, &stateErr) {
		return fmt.Errorf("could not load patch: %w", err)
	}
	m.patch.CopyValuesFrom(p)
	m.name = name
	m.resync()
	m.changed = false
	return err
}

// Save serializes the patch.
func (m *Model) Save() ([]byte, error) {
	data, err := m.patch.SerializeNamed(m.name)
	if err != nil {
		return nil, err
	}
	m.changed = false
	return data, nil
}

// LoadPreset replaces the patch with a preset.
func (m *Model) LoadPreset(p *Preset) {
	p.ApplyTo(m.patch)
	m.name = p.Name
	m.resync()
	m.changed = false
}

// Reset returns every parameter to its default.
func (m *Model) Reset() {
	m.patch.Reset()
	m.name = ""
	m.resync()
	m.changed = true
}

// resync sends every parameter value to the audio thread.
func (m *Model) resync() {
	for _, prm := range m.patch.Params() {
		m.send(MsgToAudio{Kind: MsgSetParam, ID: prm.Meta.ID, Value: prm.Value})
	}
}

// send pushes msg to the audio thread, or appends it to the backlog if the
// queue is full. Once there is a backlog, new messages queue behind it so
// the order is kept.
func (m *Model) send(msg MsgToAudio) {
	if len(m.backlog) == 0 && m.broker.ToAudio.TryPush(msg) {
		return
	}
	m.backlog = append(m.backlog, msg)
}

func (m *Model) flush() {
	n := 0
	for n < len(m.backlog) && m.broker.ToAudio.TryPush(m.backlog[n]) {
		n++
	}
	m.backlog = append(m.backlog[:0], m.backlog[n:]...)
}

func (m *Model) unknownParam(id uint32) {
	if sixop.DebugAsserts {
		panic(fmt.Sprintf("model: unknown parameter id %d", id))
	}
	m.logf("unknown parameter id %d", id)
}

func (m *Model) logf(format string, args ...any) {
	if m.Diagnostics != nil {
		m.Diagnostics(format, args...)
	}
}
