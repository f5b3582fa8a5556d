package synth

import (
	"github.com/sixop/sixop"
	"github.com/viterin/vek/vek32"
)

// MaxBlock is the longest segment rendered at once. Longer buffers are split,
// so the scratch buffers of the engine can be fixed size.
const MaxBlock = 1024

type (
	// Synth is the six-operator audio engine. It implements sixop.Synth.
	// After construction it never allocates.
	Synth struct {
		patch      *sixop.Patch
		dirty      bool
		params     blockParams
		voices     VoiceManager
		sampleRate float64
		invRate    float32
		globalTime uint64

		busL, busR     [MaxBlock]float32
		voiceL, voiceR [MaxBlock]float32
	}

	// GoSynther creates Synths. It implements sixop.Synther.
	GoSynther struct{}
)

func (GoSynther) Name() string { return "Go" }

func (GoSynther) Synth(patch *sixop.Patch, sampleRate float64) sixop.Synth {
	return New(patch, sampleRate)
}

// New creates an engine reading its parameters from patch. The engine keeps
// the pointer; the patch must only be modified on the audio thread, followed
// by a call to Update.
func New(patch *sixop.Patch, sampleRate float64) *Synth {
	s := &Synth{sampleRate: sampleRate, invRate: float32(1 / sampleRate)}
	s.Update(patch)
	s.refresh()
	return s
}

// Update marks the parameters changed. They are derived again before the
// next rendered sample.
func (s *Synth) Update(patch *sixop.Patch) {
	s.patch = patch
	s.dirty = true
}

func (s *Synth) refresh() {
	s.params.update(s.patch, float32(s.sampleRate))
	if s.params.voiceLimit != s.voices.Limit() {
		s.voices.SetLimit(s.params.voiceLimit)
	}
	s.dirty = false
}

// Panic silences all voices immediately.
func (s *Synth) Panic() {
	s.voices.Panic()
}

// ActiveVoices returns the number of voices sounding or releasing.
func (s *Synth) ActiveVoices() int {
	a, r := s.voices.Counts()
	return a + r
}

// Voices gives access to the voice pool, e.g. for displaying its state.
func (s *Synth) Voices() *VoiceManager { return &s.voices }

// SampleRate returns the sample rate the engine was created with.
func (s *Synth) SampleRate() float64 { return s.sampleRate }

// RenderBlock fills buffer, applying each event at its frame. Events with
// a frame beyond the buffer are applied after the last sample.
func (s *Synth) RenderBlock(buffer sixop.AudioBuffer, events []sixop.NoteEvent) {
	if s.dirty {
		s.refresh()
	}
	frame := 0
	for frame < len(buffer) {
		for len(events) > 0 && events[0].Frame <= frame {
			s.handle(events[0])
			events = events[1:]
		}
		end := len(buffer)
		if len(events) > 0 && events[0].Frame < end {
			end = events[0].Frame
		}
		end = min(end, frame+MaxBlock)
		s.renderSegment(buffer[frame:end])
		frame = end
	}
	for _, e := range events {
		s.handle(e)
	}
}

func (s *Synth) handle(e sixop.NoteEvent) {
	switch {
	case e.AllNotesOff:
		s.voices.ReleaseAll()
	case e.On && e.Velocity > 0:
		s.voices.NoteOn(&s.params, e.Note, e.Velocity, s.globalTime, s.sampleRate)
	default:
		s.voices.NoteOff(e.Note)
	}
}

func (s *Synth) renderSegment(out sixop.AudioBuffer) {
	n := len(out)
	busL, busR := s.busL[:n], s.busR[:n]
	clear(busL)
	clear(busR)
	voiceL, voiceR := s.voiceL[:n], s.voiceR[:n]
	for i := range s.voices.voices {
		v := &s.voices.voices[i]
		if v.State == VoiceFree {
			continue
		}
		v.render(&s.params, s.invRate, voiceL, voiceR)
		vek32.Add_Inplace(busL, voiceL)
		vek32.Add_Inplace(busR, voiceR)
	}
	vek32.MulNumber_Inplace(busL, s.params.level)
	vek32.MulNumber_Inplace(busR, s.params.level)
	for i := range out {
		out[i] = [2]float32{busL[i], busR[i]}
	}
	s.voices.Reclaim()
	s.globalTime += uint64(n)
}
