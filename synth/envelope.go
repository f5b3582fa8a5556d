package synth

import "github.com/sixop/sixop"

type (
	// EnvStage is the stage of a DAHDSR envelope.
	EnvStage int

	// Envelope is a linear delay-attack-hold-decay-sustain-release
	// envelope generator. The zero value is idle.
	Envelope struct {
		Stage   EnvStage
		Level   float32
		elapsed float32 // samples spent in the current stage
		from    float32 // starting level of the attack or release ramp
	}

	// EnvParams are the envelope times converted to samples.
	EnvParams struct {
		Delay, Attack, Hold, Decay, Sustain, Release float32
	}
)

const (
	EnvIdle EnvStage = iota
	EnvDelay
	EnvAttack
	EnvHold
	EnvDecay
	EnvSustain
	EnvRelease
)

var envStageNames = [...]string{"idle", "delay", "attack", "hold", "decay", "sustain", "release"}

func (s EnvStage) String() string {
	if s < 0 || int(s) >= len(envStageNames) {
		return "unknown"
	}
	return envStageNames[s]
}

// envParams reads the six envelope parameters starting at id of the first
// one and converts the times to samples.
func envParams(patch *sixop.Patch, id func(stage int) uint32, sampleRate float32) EnvParams {
	return EnvParams{
		Delay:   patch.Value(id(sixop.EnvDelay)) * sampleRate,
		Attack:  patch.Value(id(sixop.EnvAttack)) * sampleRate,
		Hold:    patch.Value(id(sixop.EnvHold)) * sampleRate,
		Decay:   patch.Value(id(sixop.EnvDecay)) * sampleRate,
		Sustain: patch.Value(id(sixop.EnvSustain)),
		Release: patch.Value(id(sixop.EnvRelease)) * sampleRate,
	}
}

// Trigger starts the envelope from the delay stage. A sounding envelope
// attacks from its current level.
func (e *Envelope) Trigger() {
	e.Stage = EnvDelay
	e.elapsed = 0
	e.from = e.Level
}

// Release moves the envelope to the release stage, ramping down from its
// current level. An envelope still in its delay has nothing to release and
// goes idle.
func (e *Envelope) Release() {
	switch e.Stage {
	case EnvIdle, EnvRelease:
		return
	}
	e.Stage = EnvRelease
	e.elapsed = 0
	e.from = e.Level
	if e.from == 0 {
		e.Stage = EnvIdle
	}
}

// Reset silences the envelope immediately.
func (e *Envelope) Reset() {
	*e = Envelope{}
}

// Next advances the envelope by one sample and returns its level. Stages
// with zero duration are skipped within the same sample.
func (e *Envelope) Next(p *EnvParams) float32 {
	for {
		switch e.Stage {
		case EnvDelay:
			if e.elapsed < p.Delay {
				e.elapsed++
				return e.Level
			}
			e.enter(EnvAttack)
		case EnvAttack:
			if e.elapsed < p.Attack {
				e.elapsed++
				e.Level = e.from + (1-e.from)*min(e.elapsed/p.Attack, 1)
				return e.Level
			}
			e.Level = 1
			e.enter(EnvHold)
		case EnvHold:
			if e.elapsed < p.Hold {
				e.elapsed++
				return e.Level
			}
			e.enter(EnvDecay)
		case EnvDecay:
			if e.elapsed < p.Decay {
				e.elapsed++
				e.Level = 1 - (1-p.Sustain)*min(e.elapsed/p.Decay, 1)
				return e.Level
			}
			e.enter(EnvSustain)
		case EnvSustain:
			e.Level = p.Sustain
			return e.Level
		case EnvRelease:
			if e.elapsed < p.Release {
				e.elapsed++
				e.Level = e.from * (1 - min(e.elapsed/p.Release, 1))
				return e.Level
			}
			e.Stage = EnvIdle
			e.Level = 0
			return 0
		default:
			e.Level = 0
			return 0
		}
	}
}

func (e *Envelope) enter(s EnvStage) {
	e.Stage = s
	e.elapsed = 0
}
