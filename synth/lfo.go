package synth

// LFO is a low frequency oscillator using the same waveforms as the
// operators. Its output is in [-1, 1].
type LFO struct {
	phase float32
}

// Reset sets the phase of the LFO, in cycles.
func (l *LFO) Reset(phase float32) {
	l.phase = wrap(phase)
}

// Phase returns the current phase of the LFO, in cycles.
func (l *LFO) Phase() float32 { return l.phase }

// Next returns the current output and advances the phase by inc cycles.
func (l *LFO) Next(inc float32, shape int) float32 {
	out := lookup(&wavetables[shape], l.phase)
	l.phase = wrap(l.phase + inc)
	return out
}
