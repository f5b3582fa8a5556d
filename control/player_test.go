package control_test

import (
	"errors"
	"testing"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/control"
	"github.com/sixop/sixop/synth"
)

const sampleRate = 44100

type recordingHost struct {
	calls []string
}

func (h *recordingHost) BeginEdit(id uint32)           { h.calls = append(h.calls, "begin") }
func (h *recordingHost) SetParam(id uint32, v float32) { h.calls = append(h.calls, "set") }
func (h *recordingHost) EndEdit(id uint32)             { h.calls = append(h.calls, "end") }

func newPair(queueSize int) (*control.Model, *control.Player) {
	broker := control.NewBrokerSize(queueSize)
	patch := sixop.NewPatch()
	model := control.NewModel(broker, patch)
	player := control.NewPlayer(broker, synth.GoSynther{}, patch.Copy(), sampleRate)
	return model, player
}

func process(player *control.Player, frames int) sixop.AudioBuffer {
	buffer := make(sixop.AudioBuffer, frames)
	player.Process(buffer, control.NullContext{})
	return buffer
}

func TestSetParamReachesPlayer(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	id := sixop.MainID(sixop.MainLevel)
	if err := model.SetParam(id, 0.25); err != nil {
		t.Fatal(err)
	}
	process(player, 64)
	if v := player.Patch().Value(id); v != 0.25 {
		t.Fatalf("player has %v, expected 0.25", v)
	}
}

func TestSetParamIsClampedOnBothSides(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	id := sixop.SourceID(2, sixop.SourceRatio)
	model.SetParam(id, 100)
	process(player, 64)
	if a, b := model.Patch().Value(id), player.Patch().Value(id); a != 4 || b != 4 {
		t.Fatalf("expected both sides to clamp to 4, got %v and %v", a, b)
	}
}

func TestUnknownParamIsRejected(t *testing.T) {
	model, _ := newPair(control.DefaultQueueSize)
	var logged int
	model.Diagnostics = func(string, ...any) { logged++ }
	if err := model.SetParam(12345, 1); !errors.Is(err, sixop.ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
	if err := model.BeginEdit(12345); !errors.Is(err, sixop.ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
	if logged != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", logged)
	}
}

func TestBacklogIsFlushedInOrder(t *testing.T) {
	model, player := newPair(4)
	id := sixop.MainID(sixop.MainLevel)
	for i := 1; i <= 10; i++ {
		model.SetParam(id, float32(i)/10)
	}
	if model.Backlog() != 6 || model.Dropped() == 0 {
		t.Fatalf("expected a backlog of 6 and a drop, got %d and %d", model.Backlog(), model.Dropped())
	}
	for i := 0; i < 5 && model.Backlog() > 0; i++ {
		process(player, 16)
		model.Poll()
	}
	process(player, 16)
	if model.Backlog() != 0 {
		t.Fatalf("backlog not flushed: %d", model.Backlog())
	}
	if v := player.Patch().Value(id); v != 1 {
		t.Fatalf("expected the last value 1 to win, got %v", v)
	}
}

func TestEditGesturesReachHost(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	host := &recordingHost{}
	player.SetHostNotifier(host)
	id := sixop.MixerID(3, sixop.MixerPan)
	model.BeginEdit(id)
	model.SetParam(id, 0.1)
	model.SetParam(id, 0.2)
	model.EndEdit(id)
	process(player, 32)
	want := []string{"begin", "set", "set", "end"}
	if len(host.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, host.calls)
	}
	for i := range want {
		if host.calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, host.calls)
		}
	}
}

func TestHostParamReachesModel(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	id := sixop.MatrixID(4, sixop.MatrixDepth)
	player.SetHostParam(id, -0.5)
	model.Poll()
	if v := model.Patch().Value(id); v != -0.5 {
		t.Fatalf("model has %v, expected -0.5", v)
	}
	if !model.Changed() {
		t.Fatalf("model should be marked changed")
	}
}

func TestNotesAndMeter(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	model.NoteOn(69, 127)
	process(player, 1024)
	model.Poll()
	m := model.Meter()
	if m.ActiveVoices != 1 || m.PeakL <= 0 || m.PeakR <= 0 || m.RMS <= 0 {
		t.Fatalf("unexpected meter %+v", m)
	}
	if m.PeakL > 1 || m.RMS > m.PeakL {
		t.Fatalf("implausible meter %+v", m)
	}
	model.Panic()
	buffer := process(player, 256)
	model.Poll()
	if model.Meter().ActiveVoices != 0 {
		t.Fatalf("voices left after panic")
	}
	for i, s := range buffer {
		if s != [2]float32{} {
			t.Fatalf("sample %d not silent after panic", i)
		}
	}
}

func TestMIDIEventsSplitTheBlock(t *testing.T) {
	_, player := newPair(control.DefaultQueueSize)
	ctx := &control.EventContext{Events: []control.MIDINoteEvent{
		{Frame: 300, On: true, Note: 60, Velocity: 100},
	}}
	buffer := make(sixop.AudioBuffer, 256)
	player.Process(buffer, ctx)
	for i, s := range buffer {
		if s != [2]float32{} {
			t.Fatalf("sample %d not silent before the note", i)
		}
	}
	player.Process(buffer, ctx)
	if buffer[44] != [2]float32{} {
		t.Fatalf("sample 44 should be the first sample of the note, which starts at phase 0")
	}
	var sounding bool
	for _, s := range buffer[45:] {
		sounding = sounding || s != [2]float32{}
	}
	if !sounding {
		t.Fatalf("note at frame 300 did not start in the second block")
	}
}

func TestLoadCorruptStateLeavesPatchUntouched(t *testing.T) {
	model, _ := newPair(control.DefaultQueueSize)
	id := sixop.MainID(sixop.MainLevel)
	model.SetParam(id, 0.3)
	err := model.Load([]byte("params: [unclosed"))
	if !errors.Is(err, sixop.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	if v := model.Patch().Value(id); v != 0.3 {
		t.Fatalf("patch was modified: %v", v)
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	model.SetName("Test")
	model.SetParam(sixop.SourceID(1, sixop.SourceWaveform), sixop.WaveTriangle)
	model.SetParam(sixop.MixerID(5, sixop.MixerLevel), 0.5)
	data, err := model.Save()
	if err != nil {
		t.Fatal(err)
	}
	other, otherPlayer := newPair(control.DefaultQueueSize)
	if err := other.Load(data); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	process(player, 16)
	process(otherPlayer, 16)
	if other.Name() != "Test" || !other.Patch().Equal(model.Patch()) || !otherPlayer.Patch().Equal(player.Patch()) {
		t.Fatalf("state did not survive the round trip")
	}
	if other.Changed() {
		t.Fatalf("freshly loaded model should not be changed")
	}
}

func TestLoadPartialState(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	err := model.Load([]byte("version: 1\nparams:\n  500: 0.25\n  501: abc\n  999999: 1\n"))
	var stateErr *sixop.StateError
	if !errors.As(err, &stateErr) || len(stateErr.Skipped) != 1 {
		t.Fatalf("expected one skipped entry, got %v", err)
	}
	process(player, 16)
	if v := player.Patch().Value(sixop.MainID(sixop.MainLevel)); v != 0.25 {
		t.Fatalf("valid entry not applied: %v", v)
	}
	if v := player.Patch().Int(sixop.MainID(sixop.MainVoiceLimit)); v != sixop.MaxVoices {
		t.Fatalf("bad entry should leave the default, got %v", v)
	}
}

func TestVolumeControllerSetsLevel(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	id := sixop.MainID(sixop.MainLevel)
	ctx := &control.EventContext{Events: []control.MIDINoteEvent{
		{Frame: 0, On: true, Note: 69, Velocity: 127},
		{Frame: 0, Controller: true, Note: 7, Velocity: 0},
	}}
	buffer := make(sixop.AudioBuffer, 512)
	player.Process(buffer, ctx)
	if v := player.Patch().Value(id); v != 0 {
		t.Fatalf("player level %v, expected 0", v)
	}
	for i, s := range buffer {
		if s != [2]float32{} {
			t.Fatalf("sample %d not silent at zero volume", i)
		}
	}
	model.Poll()
	if v := model.Patch().Value(id); v != 0 {
		t.Fatalf("model level %v, expected 0", v)
	}
}

func TestAllNotesOffLetsVoicesRingOut(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	model.NoteOn(60, 100)
	model.NoteOn(64, 100)
	process(player, 1024)
	model.AllNotesOff()
	process(player, 1024)
	model.Poll()
	if n := model.Meter().ActiveVoices; n != 2 {
		t.Fatalf("released voices should still sound, got %d", n)
	}
	process(player, sampleRate)
	model.Poll()
	if n := model.Meter().ActiveVoices; n != 0 {
		t.Fatalf("expected all voices to finish, got %d", n)
	}
}

func TestAllNotesOffController(t *testing.T) {
	model, player := newPair(control.DefaultQueueSize)
	ctx := &control.EventContext{Events: []control.MIDINoteEvent{
		{Frame: 0, On: true, Note: 60, Velocity: 100},
		{Frame: 100, Controller: true, Note: 123},
	}}
	buffer := make(sixop.AudioBuffer, sampleRate)
	player.Process(buffer, ctx)
	model.Poll()
	if n := model.Meter().ActiveVoices; n != 0 {
		t.Fatalf("expected the voice to finish after controller 123, got %d", n)
	}
}

func TestTooManyEventsAreCounted(t *testing.T) {
	_, player := newPair(control.DefaultQueueSize)
	events := make([]control.MIDINoteEvent, 300)
	for i := range events {
		events[i] = control.MIDINoteEvent{On: i%2 == 0, Note: byte(i % 128), Velocity: 100}
	}
	buffer := make(sixop.AudioBuffer, 64)
	player.Process(buffer, &control.EventContext{Events: events})
	if n := player.DroppedEvents(); n != 44 {
		t.Fatalf("expected 44 dropped events, got %d", n)
	}
}
