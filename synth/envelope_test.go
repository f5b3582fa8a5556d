package synth

import (
	"math"
	"testing"

	"github.com/sixop/sixop"
)

func TestEnvelopeStagesAreMonotonic(t *testing.T) {
	p := EnvParams{Delay: 10, Attack: 100, Hold: 10, Decay: 100, Sustain: 0.5, Release: 50}
	var e Envelope
	e.Trigger()
	prev := float32(0)
	for i := 0; i < 300; i++ {
		v := e.Next(&p)
		switch e.Stage {
		case EnvDelay, EnvAttack, EnvHold:
			if v < prev {
				t.Fatalf("sample %d: level decreased from %v to %v during %v", i, prev, v, e.Stage)
			}
		case EnvDecay:
			if v > prev {
				t.Fatalf("sample %d: level increased from %v to %v during decay", i, prev, v)
			}
		}
		if v < 0 || v > 1 {
			t.Fatalf("sample %d: level %v out of range", i, v)
		}
		prev = v
	}
	if e.Stage != EnvSustain || e.Level != 0.5 {
		t.Fatalf("expected sustain at 0.5, got %v at %v", e.Stage, e.Level)
	}
}

func TestEnvelopeZeroTimesAreSkipped(t *testing.T) {
	p := EnvParams{Sustain: 0.25}
	var e Envelope
	e.Trigger()
	if v := e.Next(&p); v != 0.25 || e.Stage != EnvSustain {
		t.Fatalf("expected to reach sustain 0.25 in one sample, got %v in %v", v, e.Stage)
	}
	e.Release()
	if e.Next(&p); e.Stage != EnvIdle {
		t.Fatalf("zero release should go idle immediately, got %v", e.Stage)
	}
}

func TestEnvelopeReleaseDoesNotJump(t *testing.T) {
	p := EnvParams{Attack: 100, Decay: 100, Sustain: 1, Release: 40}
	var e Envelope
	e.Trigger()
	var level float32
	for i := 0; i < 50; i++ {
		level = e.Next(&p)
	}
	e.Release()
	maxStep := level/p.Release + 1e-6
	prev := level
	for i := 0; i < 40; i++ {
		v := e.Next(&p)
		if v > prev || prev-v > maxStep {
			t.Fatalf("release sample %d: went from %v to %v", i, prev, v)
		}
		prev = v
	}
	e.Next(&p)
	if e.Stage != EnvIdle || e.Level != 0 {
		t.Fatalf("expected idle after the release time, got %v at %v", e.Stage, e.Level)
	}
}

func TestEnvelopeReleaseDuringDelay(t *testing.T) {
	p := EnvParams{Delay: 100, Attack: 10, Sustain: 1, Release: 10}
	var e Envelope
	e.Trigger()
	e.Next(&p)
	e.Release()
	if e.Stage != EnvIdle {
		t.Fatalf("note-off during delay should end the envelope, got %v", e.Stage)
	}
}

func TestEnvelopeRetriggerStartsFromCurrentLevel(t *testing.T) {
	p := EnvParams{Attack: 10, Sustain: 0.5, Release: 100}
	var e Envelope
	e.Trigger()
	for i := 0; i < 20; i++ {
		e.Next(&p)
	}
	level := e.Level
	e.Trigger()
	if v := e.Next(&p); v < level {
		t.Fatalf("retrigger jumped down from %v to %v", level, v)
	}
}

func TestWaveformsWrapContinuously(t *testing.T) {
	for w := 0; w < sixop.NumWaveforms; w++ {
		t.Run(sixop.WaveformNames[w], func(t *testing.T) {
			end, start := Waveform(w, 1-1e-4), Waveform(w, 0)
			if d := math.Abs(float64(end - start)); d > 0.01 {
				t.Errorf("discontinuity %v across the wrap", d)
			}
			for i := 0; i < 4*TableSize; i++ {
				v := Waveform(w, float32(i)/(4*TableSize))
				if v < -1.0001 || v > 1.0001 {
					t.Fatalf("value %v out of range at %d", v, i)
				}
			}
			if a, b := Waveform(w, 1.25), Waveform(w, 0.25); math.Abs(float64(a-b)) > 1e-4 {
				t.Errorf("phase 1.25 gave %v, phase 0.25 gave %v", a, b)
			}
			if a, b := Waveform(w, -0.75), Waveform(w, 0.25); math.Abs(float64(a-b)) > 1e-4 {
				t.Errorf("phase -0.75 gave %v, phase 0.25 gave %v", a, b)
			}
		})
	}
}

func TestSineTableAccuracy(t *testing.T) {
	for i := 0; i < 1000; i++ {
		x := float64(i) / 1000
		want := math.Sin(2 * math.Pi * x)
		if got := Waveform(sixop.WaveSine, float32(x)); math.Abs(float64(got)-want) > 1e-5 {
			t.Fatalf("sin at %v: got %v, want %v", x, got, want)
		}
	}
}

func TestLFOStaysInRange(t *testing.T) {
	var l LFO
	l.Reset(0.3)
	for i := 0; i < 10000; i++ {
		v := l.Next(0.0137, sixop.WaveSawish)
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("lfo output %v out of range", v)
		}
		if p := l.Phase(); p < 0 || p >= 1 {
			t.Fatalf("lfo phase %v out of range", p)
		}
	}
}
