package synth

import "github.com/chewxy/math32"

// Operator is a single oscillator of a voice: a wavetable oscillator with its
// own envelope, LFO and one sample of self feedback.
type Operator struct {
	phase   float32 // cycles, in [0,1)
	prevOut float32
	env     Envelope
	lfo     LFO
}

// trigger restarts the operator for a new note. lfoPhase is used for
// free-running LFOs.
func (o *Operator) trigger(p *opParams, lfoPhase float32) {
	o.phase = wrap(p.startPhase)
	o.prevOut = 0
	o.env.Trigger()
	if p.lfoRetrig {
		o.lfo.Reset(0)
	} else {
		o.lfo.Reset(lfoPhase)
	}
}

func (o *Operator) release() {
	o.env.Release()
}

func (o *Operator) reset() {
	*o = Operator{}
}

// next renders one sample. pm is the phase modulation in cycles and rmFactor
// the ring modulation gain computed from the matrix.
func (o *Operator) next(p *opParams, noteHz, invSampleRate, pm, rmFactor float32) float32 {
	env := o.env.Next(&p.env)
	lfo := o.lfo.Next(p.lfoInc, p.lfoShape)
	ratio := math32.Exp2(p.baseRatio + env*p.envToRatio + lfo*p.lfoToRatio)
	freq := (p.fixedHz + p.keytrack*noteHz) * ratio

	x := wrap(o.phase + pm + p.feedback*o.prevOut)
	amp := 1 + p.envToAmp*(env-1)
	out := lookup(&wavetables[p.waveform], x) * rmFactor * amp * p.active
	o.prevOut = out
	o.phase = wrap(o.phase + freq*invSampleRate)
	return out
}
