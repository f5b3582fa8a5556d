package synth

import (
	"testing"

	"github.com/sixop/sixop"
)

func lfoPhases(t *testing.T, retrigger bool) (first, second float32) {
	t.Helper()
	patch := sixop.NewPatch()
	patch.Set(sixop.SourceID(0, sixop.SourceLFORate), 3)
	if retrigger {
		patch.Set(sixop.SourceID(0, sixop.SourceLFORetrigger), 1)
	} else {
		patch.Set(sixop.SourceID(0, sixop.SourceLFORetrigger), 0)
	}
	s := New(patch, 48000)
	buffer := make(sixop.AudioBuffer, 1000)
	s.RenderBlock(buffer, []sixop.NoteEvent{{On: true, Note: 60, Velocity: 100}})
	s.RenderBlock(buffer, []sixop.NoteEvent{{On: true, Note: 64, Velocity: 100}})
	return s.voices.voices[0].ops[0].lfo.Phase(), s.voices.voices[1].ops[0].lfo.Phase()
}

func TestFreeRunningLFOIsSharedByVoices(t *testing.T) {
	first, second := lfoPhases(t, false)
	// 2000 samples at 3 Hz
	if d := first - second; d > 1e-3 || d < -1e-3 {
		t.Fatalf("free running LFOs should be in phase, got %v and %v", first, second)
	}
	if d := first - 0.125; d > 1e-3 || d < -1e-3 {
		t.Fatalf("free running LFO phase %v, want 0.125", first)
	}
}

func TestRetriggeredLFOStartsAtZero(t *testing.T) {
	first, second := lfoPhases(t, true)
	// the second voice started 1000 samples later, from phase zero
	if d := second - 0.0625; d > 1e-3 || d < -1e-3 {
		t.Fatalf("retriggered LFO phase %v, want 0.0625", second)
	}
	if d := first - 0.125; d > 1e-3 || d < -1e-3 {
		t.Fatalf("retriggered LFO phase %v, want 0.125", first)
	}
}
