package synth

import (
	"github.com/chewxy/math32"
	"github.com/sixop/sixop"
)

type (
	// VoiceState is the lifecycle state of a voice.
	VoiceState int

	// Voice is one note being played: the six operators, the outputs they
	// produced in the current sample and the amplitude envelope deciding
	// when the voice can be reclaimed.
	Voice struct {
		State    VoiceState
		Note     byte
		Velocity byte

		noteHz       float32
		velGain      float32
		triggerStamp uint64
		releaseStamp uint64
		ops          [sixop.NumOps]Operator
		outs         [sixop.NumOps]float32
		ampEnv       Envelope
	}
)

const (
	VoiceFree VoiceState = iota
	VoiceActive
	VoiceReleasing
)

func (s VoiceState) String() string {
	switch s {
	case VoiceFree:
		return "free"
	case VoiceActive:
		return "active"
	case VoiceReleasing:
		return "releasing"
	}
	return "unknown"
}

// NoteFrequency returns the frequency of a MIDI note in Hz, A4 (69) being
// 440 Hz.
func NoteFrequency(note byte) float32 {
	return 440 * math32.Exp2((float32(note)-69)/12)
}

func (v *Voice) trigger(b *blockParams, note, velocity byte, stamp uint64, globalTime uint64, sampleRate float64) {
	v.State = VoiceActive
	v.Note = note
	v.Velocity = velocity
	v.noteHz = NoteFrequency(note)
	v.velGain = 1 - b.velSens + b.velSens*float32(velocity)/127
	v.triggerStamp = stamp
	v.releaseStamp = 0
	v.outs = [sixop.NumOps]float32{}
	for i := range v.ops {
		p := &b.ops[i]
		// free-running LFOs are locked to the engine clock, so every voice
		// sees the same phase
		cycles := float64(globalTime) * p.lfoRateHz / sampleRate
		v.ops[i].trigger(p, float32(cycles-float64(int64(cycles))))
	}
	v.ampEnv.Trigger()
}

func (v *Voice) release(stamp uint64) {
	if v.State != VoiceActive {
		return
	}
	v.State = VoiceReleasing
	v.releaseStamp = stamp
	for i := range v.ops {
		v.ops[i].release()
	}
	v.ampEnv.Release()
}

func (v *Voice) free() {
	*v = Voice{}
}

// finished is true when the amplitude envelope has run out.
func (v *Voice) finished() bool {
	return v.State != VoiceFree && v.ampEnv.Stage == EnvIdle
}

// render overwrites left and right with the output of the voice. The
// operators are evaluated in ascending order, so every matrix edge reads the
// output its source produced in the same sample.
func (v *Voice) render(b *blockParams, invSampleRate float32, left, right []float32) {
	for i := range left {
		var l, r float32
		for t := 0; t < sixop.NumOps; t++ {
			var pm, rm float32
			start, end := sixop.MatrixEdgesInto(t)
			for e := start; e < end; e++ {
				s := v.outs[e-start]
				pm += b.pmWeight[e] * s
				rm += b.rmWeight[e] * s
			}
			p := &b.ops[t]
			out := v.ops[t].next(p, v.noteHz, invSampleRate, pm, 1-b.rmDepth[t]+rm)
			v.outs[t] = out
			l += out * p.mixL
			r += out * p.mixR
		}
		amp := v.ampEnv.Next(&b.ampEnv) * v.velGain
		left[i] = l * amp
		right[i] = r * amp
	}
}
