package synth_test

import (
	"math"
	"testing"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/synth"
)

// crossings counts the sign changes of the left channel in buffer[from:to].
func crossings(buffer sixop.AudioBuffer, from, to int) int {
	n := 0
	for i := from + 1; i < to; i++ {
		if (buffer[i-1][0] < 0) != (buffer[i][0] < 0) {
			n++
		}
	}
	return n
}

func expectCrossings(t *testing.T, what string, got, want, tolerance int) {
	t.Helper()
	if got < want-tolerance || got > want+tolerance {
		t.Errorf("%s: %d zero crossings, want %d±%d", what, got, want, tolerance)
	}
}

func TestKeytrackedRatio(t *testing.T) {
	p := instantPatch(t)
	set(t, p, sixop.SourceID(0, sixop.SourceRatio), 1) // one octave up
	buffer := render(t, p, sampleRate, noteOn(0, 69))
	expectCrossings(t, "880 Hz", crossings(buffer, 0, sampleRate), 1760, 4)
}

func TestFixedFrequencyWithOctave(t *testing.T) {
	p := instantPatch(t)
	set(t, p, sixop.SourceID(0, sixop.SourceKeytrack), 0)
	set(t, p, sixop.SourceID(0, sixop.SourceFixedFreq), 100)
	set(t, p, sixop.SourceID(0, sixop.SourceOctave), 2)
	low := render(t, p, sampleRate, noteOn(0, 30))
	expectCrossings(t, "100 Hz two octaves up", crossings(low, 0, sampleRate), 800, 4)
	high := render(t, p, sampleRate, noteOn(0, 90))
	for i := range low {
		if low[i] != high[i] {
			t.Fatalf("sample %d: a fixed frequency operator should not follow the note, %v vs %v", i, low[i], high[i])
		}
	}
}

func TestStartPhase(t *testing.T) {
	p := instantPatch(t)
	set(t, p, sixop.SourceID(0, sixop.SourceStartPhase), 0.25)
	buffer := render(t, p, 16, noteOn(0, 69))
	want := synth.Waveform(sixop.WaveSine, 0.25)
	if math.Abs(float64(buffer[0][0]-want)) > 1e-3 || math.Abs(float64(buffer[0][1]-want)) > 1e-3 {
		t.Fatalf("first sample %v, want %v on both channels", buffer[0], want)
	}
}

// decayingSourceEnv makes the envelope of operator 0 fall from 1 to 0 in
// decay seconds.
func decayingSourceEnv(t *testing.T, p *sixop.Patch, decay float32) {
	t.Helper()
	set(t, p, sixop.SourceEnvID(0, sixop.EnvAttack), 0)
	set(t, p, sixop.SourceEnvID(0, sixop.EnvDecay), decay)
	set(t, p, sixop.SourceEnvID(0, sixop.EnvSustain), 0)
}

func TestEnvelopeToRatioBendsPitch(t *testing.T) {
	p := instantPatch(t)
	decayingSourceEnv(t, p, 0.5)
	set(t, p, sixop.SourceID(0, sixop.SourceEnvToRatio), 1)
	buffer := render(t, p, sampleRate, noteOn(0, 69))
	tenth := sampleRate / 10
	start := crossings(buffer, 0, tenth)
	end := crossings(buffer, sampleRate-tenth, sampleRate)
	// the envelope starts at one octave up and ends at the base pitch
	expectCrossings(t, "after the decay", end, 88, 2)
	if start < 150 {
		t.Errorf("the envelope did not raise the pitch: %d crossings at the start, %d at the end", start, end)
	}
}

func TestLFOToRatioModulatesPitch(t *testing.T) {
	p := instantPatch(t)
	set(t, p, sixop.SourceID(0, sixop.SourceLFORate), 1)
	set(t, p, sixop.SourceID(0, sixop.SourceLFOShape), sixop.WaveSine)
	set(t, p, sixop.SourceID(0, sixop.SourceLFORetrigger), 1)
	set(t, p, sixop.SourceID(0, sixop.SourceLFOToRatio), 1)
	buffer := render(t, p, sampleRate, noteOn(0, 69))
	half := sampleRate / 2
	up, down := crossings(buffer, 0, half), crossings(buffer, half, sampleRate)
	// a positive half cycle of the LFO raises the pitch, a negative one lowers it
	if up < 440 || down > 440 || float64(up) < 1.5*float64(down) {
		t.Fatalf("LFO did not modulate the pitch: %d crossings in the first half, %d in the second", up, down)
	}
}

func TestEnvelopeToAmpGatesOperator(t *testing.T) {
	p := instantPatch(t)
	decayingSourceEnv(t, p, 0.1)
	ungated := render(t, p, sampleRate/2, noteOn(0, 69))
	set(t, p, sixop.SourceID(0, sixop.SourceEnvToAmp), 1)
	gated := render(t, p, sampleRate/2, noteOn(0, 69))
	var early float32
	for i := 0; i < sampleRate/100; i++ {
		early = max(early, abs32(gated[i][0]))
	}
	if early < 0.5 {
		t.Errorf("gated operator is silent before the decay, peak %v", early)
	}
	for i := sampleRate / 5; i < len(gated); i++ {
		if gated[i][0] != 0 {
			t.Fatalf("sample %d: gated operator should be silent after the decay, got %v", i, gated[i])
		}
	}
	var late float32
	for i := sampleRate / 5; i < len(ungated); i++ {
		late = max(late, abs32(ungated[i][0]))
	}
	if late < 0.9 {
		t.Errorf("without envelope to amp, the envelope should not change the level, peak %v", late)
	}
}

func TestFeedbackChangesWaveformAndStaysStable(t *testing.T) {
	p := instantPatch(t)
	dry := render(t, p, sampleRate, noteOn(0, 69))
	for _, level := range []float32{1, -1} {
		set(t, p, sixop.SelfID(0, sixop.SelfActive), 1)
		set(t, p, sixop.SelfID(0, sixop.SelfLevel), level)
		wet := render(t, p, sampleRate, noteOn(0, 69))
		var diff float64
		for i, s := range wet {
			if math.IsNaN(float64(s[0])) || abs32(s[0]) > 1.001 {
				t.Fatalf("feedback %v, sample %d: output %v out of range", level, i, s)
			}
			d := float64(s[0] - dry[i][0])
			diff += d * d
		}
		if diff < 1 {
			t.Errorf("feedback %v had no audible effect, squared difference %v", level, diff)
		}
		// the waveform changes but the pitch does not
		expectCrossings(t, "440 Hz with feedback", crossings(wet, 0, sampleRate), 880, 10)
	}
}

func TestInactiveFeedbackHasNoEffect(t *testing.T) {
	p := instantPatch(t)
	dry := render(t, p, 2000, noteOn(0, 69))
	set(t, p, sixop.SelfID(0, sixop.SelfLevel), 1)
	wet := render(t, p, 2000, noteOn(0, 69))
	for i := range dry {
		if dry[i] != wet[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, dry[i], wet[i])
		}
	}
}

func TestAllNotesOffReleasesEveryVoice(t *testing.T) {
	s := synth.New(sixop.NewPatch(), sampleRate)
	buffer := make(sixop.AudioBuffer, 256)
	s.RenderBlock(buffer, []sixop.NoteEvent{noteOn(0, 60), noteOn(0, 64), noteOn(0, 67), {Frame: 100, AllNotesOff: true}})
	active, releasing := s.Voices().Counts()
	if active != 0 || releasing != 3 {
		t.Fatalf("expected 3 releasing voices, got %d active and %d releasing", active, releasing)
	}
}

func abs32(x float32) float32 {
	return float32(math.Abs(float64(x)))
}
