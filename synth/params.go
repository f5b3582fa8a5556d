package synth

import (
	"github.com/chewxy/math32"
	"github.com/sixop/sixop"
)

type (
	// opParams are the parameters of one operator, derived from the patch
	// once per block so that the per-sample loop only multiplies and adds.
	opParams struct {
		active     float32
		keytrack   float32 // 1 if the frequency follows the note, 0 if fixed
		fixedHz    float32 // 0 for keytracked operators
		baseRatio  float32 // log2 ratio; 0 for fixed operators
		envToRatio float32 // octaves
		lfoToRatio float32 // octaves
		waveform   int
		startPhase float32
		envToAmp   float32
		env        EnvParams
		lfoInc     float32 // cycles per sample
		lfoRateHz  float64
		lfoShape   int
		lfoRetrig  bool
		feedback   float32 // cycles per unit of output
		mixL, mixR float32
	}

	// blockParams is everything the engine needs from the patch while
	// rendering, in fixed size arrays.
	blockParams struct {
		ops        [sixop.NumOps]opParams
		pmWeight   [sixop.MatrixSize]float32
		rmWeight   [sixop.MatrixSize]float32
		rmDepth    [sixop.NumOps]float32
		ampEnv     EnvParams
		level      float32
		voiceLimit int
		velSens    float32
	}
)

// maxFeedback is the phase offset, in cycles, that a full scale previous
// sample adds at 100 % feedback: one radian. Beyond that, the one sample
// recursion stops converging and the operator turns into noise.
const maxFeedback = 1 / (2 * math32.Pi)

func (b *blockParams) update(patch *sixop.Patch, sampleRate float32) {
	for op := range b.ops {
		o := &b.ops[op]
		src := func(field int) uint32 { return sixop.SourceID(op, field) }
		o.active = boolToFloat(patch.Bool(src(sixop.SourceActive)))
		if patch.Bool(src(sixop.SourceKeytrack)) {
			o.keytrack = 1
			o.fixedHz = 0
			o.baseRatio = patch.Value(src(sixop.SourceRatio))
		} else {
			o.keytrack = 0
			o.fixedHz = patch.Value(src(sixop.SourceFixedFreq)) * math32.Exp2(float32(patch.Int(src(sixop.SourceOctave))))
			o.baseRatio = 0
		}
		o.envToRatio = patch.Value(src(sixop.SourceEnvToRatio)) + patch.Value(src(sixop.SourceEnvToRatioFine))/12
		o.lfoToRatio = patch.Value(src(sixop.SourceLFOToRatio)) + patch.Value(src(sixop.SourceLFOToRatioFine))/12
		o.waveform = validWaveform(patch.Int(src(sixop.SourceWaveform)))
		o.startPhase = patch.Value(src(sixop.SourceStartPhase))
		o.envToAmp = boolToFloat(patch.Bool(src(sixop.SourceEnvToAmp)))
		o.env = envParams(patch, func(stage int) uint32 { return sixop.SourceEnvID(op, stage) }, sampleRate)
		o.lfoRateHz = float64(patch.Value(src(sixop.SourceLFORate)))
		o.lfoInc = float32(o.lfoRateHz) / sampleRate
		o.lfoShape = validWaveform(patch.Int(src(sixop.SourceLFOShape)))
		o.lfoRetrig = patch.Bool(src(sixop.SourceLFORetrigger))

		o.feedback = maxFeedback * patch.Value(sixop.SelfID(op, sixop.SelfLevel)) * boolToFloat(patch.Bool(sixop.SelfID(op, sixop.SelfActive)))

		gain := patch.Value(sixop.MixerID(op, sixop.MixerLevel)) * boolToFloat(patch.Bool(sixop.MixerID(op, sixop.MixerActive)))
		pan := patch.Value(sixop.MixerID(op, sixop.MixerPan))
		o.mixL = gain * min(1, 1-pan)
		o.mixR = gain * min(1, 1+pan)
	}
	for i := range b.pmWeight {
		w := patch.Value(sixop.MatrixID(i, sixop.MatrixDepth)) * boolToFloat(patch.Bool(sixop.MatrixID(i, sixop.MatrixActive)))
		mode := float32(patch.Int(sixop.MatrixID(i, sixop.MatrixMode)))
		b.pmWeight[i] = w * (1 - mode)
		b.rmWeight[i] = w * mode
	}
	for t := range b.rmDepth {
		var d float32
		start, end := sixop.MatrixEdgesInto(t)
		for i := start; i < end; i++ {
			d += math32.Abs(b.rmWeight[i])
		}
		b.rmDepth[t] = min(d, 1)
	}
	b.ampEnv = envParams(patch, sixop.MainEnvID, sampleRate)
	b.level = patch.Value(sixop.MainID(sixop.MainLevel))
	b.voiceLimit = min(max(patch.Int(sixop.MainID(sixop.MainVoiceLimit)), 1), sixop.MaxVoices)
	b.velSens = patch.Value(sixop.MainID(sixop.MainVelocitySens))
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func validWaveform(w int) int {
	if w < 0 || w >= sixop.NumWaveforms {
		return sixop.WaveSine
	}
	return w
}
