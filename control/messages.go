package control

type (
	// MsgToAudio is a message from the control thread to the audio thread.
	// It is a plain value; which fields are meaningful depends on Kind.
	MsgToAudio struct {
		Kind     AudioMsgKind
		ID       uint32
		Value    float32
		Note     byte
		Velocity byte
	}

	// MsgToControl is a message from the audio thread to the control
	// thread.
	MsgToControl struct {
		Kind  ControlMsgKind
		ID    uint32
		Value float32
		Meter Meter
	}

	// Meter summarizes one rendered block.
	Meter struct {
		PeakL, PeakR float32
		RMS          float32
		ActiveVoices int
	}

	AudioMsgKind   int
	ControlMsgKind int
)

const (
	MsgSetParam AudioMsgKind = iota
	MsgBeginEdit
	MsgEndEdit
	MsgNoteOn
	MsgNoteOff
	MsgPanic
	MsgAllNotesOff
)

const (
	MsgParamChanged ControlMsgKind = iota
	MsgMeter
	MsgUnknownParam // the audio thread received an id it does not know
)

func (k AudioMsgKind) String() string {
	switch k {
	case MsgSetParam:
		return "SetParam"
	case MsgBeginEdit:
		return "BeginEdit"
	case MsgEndEdit:
		return "EndEdit"
	case MsgNoteOn:
		return "NoteOn"
	case MsgNoteOff:
		return "NoteOff"
	case MsgPanic:
		return "Panic"
	case MsgAllNotesOff:
		return "AllNotesOff"
	}
	return "Unknown"
}
