package sixop

import (
	"errors"
	"fmt"
	"strconv"
)

type (
	// Patch is the parameter store: a flat arena of every Param of the synth,
	// indexed densely. The stable identifiers are resolved once during
	// construction into a lookup table, so Value and Set are O(1) and never
	// allocate.
	//
	// A Patch is not safe for concurrent use. The audio thread and the control
	// thread each own their own copy and keep them in sync with messages.
	Patch struct {
		params []Param
		index  []int32 // id -> index in params; -1 when the id is not in use
	}

	// NodeKind tells to which part of the synth a parameter belongs.
	NodeKind int
)

const (
	NodeUnknown NodeKind = iota
	NodeMain
	NodeSource
	NodeSelf
	NodeMixer
	NodeMatrix
)

// MaxVoices is the maximum polyphony of the synth.
const MaxVoices = 32

// Identifier layout. Once shipped, these bases, strides and field offsets can
// never change, as the identifiers are persisted in saved patches.
const (
	MainBase     uint32 = 500
	SourceBase   uint32 = 1500
	SourceStride uint32 = 100
	SelfBase     uint32 = 10000
	SelfStride   uint32 = 100
	MixerBase    uint32 = 20000
	MixerStride  uint32 = 100
	MatrixBase   uint32 = 30000
	MatrixStride uint32 = 200
	mainStride   uint32 = 100
)

// Fields of the main output node.
const (
	MainLevel        = 0
	MainVoiceLimit   = 1
	MainVelocitySens = 2
	MainEnv          = 10 // amplitude envelope; add EnvDelay...EnvRelease
)

// Fields of a source (operator) node.
const (
	SourceRatio          = 0
	SourceActive         = 1
	SourceEnvToRatio     = 2
	SourceEnvToRatioFine = 3
	SourceLFOToRatio     = 4
	SourceLFOToRatioFine = 5
	SourceWaveform       = 6
	SourceKeytrack       = 7
	SourceFixedFreq      = 8
	SourceOctave         = 9
	SourceStartPhase     = 10
	SourceEnvToAmp       = 11
	SourceEnv            = 20 // add EnvDelay...EnvRelease
	SourceLFORate        = 40
	SourceLFOShape       = 41
	SourceLFORetrigger   = 42
)

// Offsets of the DAHDSR parameters, relative to MainEnv or SourceEnv.
const (
	EnvDelay = iota
	EnvAttack
	EnvHold
	EnvDecay
	EnvSustain
	EnvRelease
	NumEnvParams
)

// Fields of a self-feedback node.
const (
	SelfLevel  = 0
	SelfActive = 1
)

// Fields of a mixer node.
const (
	MixerLevel  = 0
	MixerActive = 1
	MixerPan    = 2
)

// Fields of a matrix node.
const (
	MatrixDepth  = 0
	MatrixActive = 1
	MatrixMode   = 2
)

// Modes of a matrix edge.
const (
	PhaseModulation = 0
	RingModulation  = 1
)

// Operator and LFO waveforms.
const (
	WaveSine = iota
	WaveSine5
	WaveSquarish
	WaveSawish
	WaveTriangle
	WaveHalfSine
	WaveAbsSine
	WavePulseSine
	NumWaveforms
)

var WaveformNames = [NumWaveforms]string{"sine", "sine^5", "squarish", "sawish", "triangle", "half sine", "abs sine", "pulse sine"}

var matrixModeNames = [...]string{"phase", "ring"}

const maxEnvTime = 10 // seconds

// ErrUnknownParam is returned when an identifier does not name any parameter.
var ErrUnknownParam = errors.New("unknown parameter id")

func MainID(field int) uint32          { return MainBase + uint32(field) }
func SourceID(op, field int) uint32    { return SourceBase + SourceStride*uint32(op) + uint32(field) }
func SelfID(op, field int) uint32      { return SelfBase + SelfStride*uint32(op) + uint32(field) }
func MixerID(op, field int) uint32     { return MixerBase + MixerStride*uint32(op) + uint32(field) }
func MatrixID(edge, field int) uint32  { return MatrixBase + MatrixStride*uint32(edge) + uint32(field) }
func SourceEnvID(op, stage int) uint32 { return SourceID(op, SourceEnv+stage) }
func MainEnvID(stage int) uint32       { return MainID(MainEnv + stage) }

// NodeOf reconstructs, using only identifier arithmetic, to which node an
// identifier belongs: the kind of the node, the operator or edge index and the
// field within the node. It does not check that the field exists.
func NodeOf(id uint32) (kind NodeKind, index int, field int) {
	within := func(base, stride uint32, count int) bool {
		return id >= base && id < base+stride*uint32(count)
	}
	switch {
	case within(MainBase, mainStride, 1):
		return NodeMain, 0, int(id - MainBase)
	case within(SourceBase, SourceStride, NumOps):
		return NodeSource, int((id - SourceBase) / SourceStride), int((id - SourceBase) % SourceStride)
	case within(SelfBase, SelfStride, NumOps):
		return NodeSelf, int((id - SelfBase) / SelfStride), int((id - SelfBase) % SelfStride)
	case within(MixerBase, MixerStride, NumOps):
		return NodeMixer, int((id - MixerBase) / MixerStride), int((id - MixerBase) % MixerStride)
	case within(MatrixBase, MatrixStride, MatrixSize):
		return NodeMatrix, int((id - MatrixBase) / MatrixStride), int((id - MatrixBase) % MatrixStride)
	}
	return NodeUnknown, 0, 0
}

// NewPatch constructs the parameter store with every parameter of the synth
// at its default value.
func NewPatch() *Patch {
	return newPatch(paramMetas)
}

// newPatch builds the arena and the identifier lookup table. A duplicate
// identifier is a defect in the parameter layout and panics.
func newPatch(metas []ParamMeta) *Patch {
	var maxID uint32
	for i := range metas {
		maxID = max(maxID, metas[i].ID)
	}
	p := &Patch{params: make([]Param, len(metas)), index: make([]int32, maxID+1)}
	for i := range p.index {
		p.index[i] = -1
	}
	for i := range metas {
		m := &metas[i]
		if prev := p.index[m.ID]; prev >= 0 {
			panic(fmt.Sprintf("duplicate param id %d at %q, collision with %q", m.ID, m.Name, metas[prev].Name))
		}
		p.index[m.ID] = int32(i)
		p.params[i] = Param{Value: m.Default, Meta: m}
	}
	return p
}

// Len returns the number of parameters.
func (p *Patch) Len() int { return len(p.params) }

// Params returns the parameters in their dense order. The slice is owned by
// the patch; callers must not modify the values directly.
func (p *Patch) Params() []Param { return p.params }

// IndexOf returns the dense index of the parameter with the given id.
func (p *Patch) IndexOf(id uint32) (int, bool) {
	if int(id) >= len(p.index) {
		return 0, false
	}
	i := p.index[id]
	return int(i), i >= 0
}

// Lookup returns the parameter with the given id.
func (p *Patch) Lookup(id uint32) (*Param, bool) {
	i, ok := p.IndexOf(id)
	if !ok {
		return nil, false
	}
	return &p.params[i], true
}

// Value returns the current value of the parameter with the given id, or 0 if
// there is no such parameter.
func (p *Patch) Value(id uint32) float32 {
	if i, ok := p.IndexOf(id); ok {
		return p.params[i].Value
	}
	return 0
}

// Bool returns the value of a parameter interpreted as a boolean.
func (p *Patch) Bool(id uint32) bool { return p.Value(id) >= 0.5 }

// Int returns the value of a parameter rounded to the nearest integer.
func (p *Patch) Int(id uint32) int {
	if prm, ok := p.Lookup(id); ok {
		return prm.Int()
	}
	return 0
}

// Set clamps v to the range of the parameter and stores it, returning the
// stored value. Unknown identifiers leave the patch untouched and return
// ErrUnknownParam.
func (p *Patch) Set(id uint32, v float32) (float32, error) {
	prm, ok := p.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("set %d: %w", id, ErrUnknownParam)
	}
	prm.Value = prm.Meta.Clamp(v)
	return prm.Value, nil
}

// Reset returns every parameter to its default value.
func (p *Patch) Reset() {
	for i := range p.params {
		p.params[i].Value = p.params[i].Meta.Default
	}
}

// Copy makes a copy of the patch values. The metadata and the lookup table are
// immutable and shared between the copies.
func (p *Patch) Copy() *Patch {
	params := make([]Param, len(p.params))
	copy(params, p.params)
	return &Patch{params: params, index: p.index}
}

// CopyValuesFrom overwrites the values of p with the values of src, which must
// have the same layout. It does not allocate.
func (p *Patch) CopyValuesFrom(src *Patch) {
	for i := range p.params {
		if i < len(src.params) {
			p.params[i].Value = src.params[i].Value
		}
	}
}

// Equal reports if every value of p equals the corresponding value of q.
func (p *Patch) Equal(q *Patch) bool {
	if len(p.params) != len(q.params) {
		return false
	}
	for i := range p.params {
		if p.params[i].Value != q.params[i].Value {
			return false
		}
	}
	return true
}

var paramMetas = buildParamMetas()

func opName(op int) string { return "Op " + strconv.Itoa(op+1) }

func floatMeta(id uint32, group, name string, min, max, def float32) ParamMeta {
	return ParamMeta{ID: id, Group: group, Name: group + " " + name, Min: min, Max: max, Default: def, Kind: FloatParam}
}

func percentMeta(id uint32, group, name string, min, max, def float32) ParamMeta {
	m := floatMeta(id, group, name, min, max, def)
	m.Percent = true
	return m
}

func boolMeta(id uint32, group, name string, def bool) ParamMeta {
	m := floatMeta(id, group, name, 0, 1, 0)
	m.Kind = BoolParam
	if def {
		m.Default = 1
	}
	return m
}

func steppedMeta(id uint32, group, name string, min, max, def float32, disp DisplayFunc) ParamMeta {
	m := floatMeta(id, group, name, min, max, def)
	m.Kind = SteppedParam
	m.Display = disp
	return m
}

func withDisplay(m ParamMeta, d DisplayFunc) ParamMeta {
	m.Display = d
	return m
}

func envMetas(id func(stage int) uint32, group string, sustain float32) []ParamMeta {
	return []ParamMeta{
		withDisplay(floatMeta(id(EnvDelay), group, "Env Delay", 0, maxEnvTime, 0), timeDispFunc),
		withDisplay(floatMeta(id(EnvAttack), group, "Env Attack", 0, maxEnvTime, 0.01), timeDispFunc),
		withDisplay(floatMeta(id(EnvHold), group, "Env Hold", 0, maxEnvTime, 0), timeDispFunc),
		withDisplay(floatMeta(id(EnvDecay), group, "Env Decay", 0, maxEnvTime, 0.3), timeDispFunc),
		percentMeta(id(EnvSustain), group, "Env Sustain", 0, 1, sustain),
		withDisplay(floatMeta(id(EnvRelease), group, "Env Release", 0, maxEnvTime, 0.2), timeDispFunc),
	}
}

func buildParamMetas() []ParamMeta {
	var ret []ParamMeta
	main := "Main"
	ret = append(ret,
		percentMeta(MainID(MainLevel), main, "Output Level", 0, 1, 1),
		steppedMeta(MainID(MainVoiceLimit), main, "Voice Limit", 1, MaxVoices, MaxVoices, nil),
		percentMeta(MainID(MainVelocitySens), main, "Velocity Sensitivity", 0, 1, 0.5),
	)
	ret = append(ret, envMetas(MainEnvID, main, 1)...)
	waveDisp := enumDispFunc(WaveformNames[:])
	for op := 0; op < NumOps; op++ {
		g := opName(op)
		ret = append(ret,
			withDisplay(floatMeta(SourceID(op, SourceRatio), g, "Ratio", -4, 4, 0), ratioDispFunc),
			boolMeta(SourceID(op, SourceActive), g, "Active", true),
			withDisplay(floatMeta(SourceID(op, SourceEnvToRatio), g, "Env to Ratio", -2, 2, 0), octavesDispFunc),
			withDisplay(floatMeta(SourceID(op, SourceEnvToRatioFine), g, "Env to Ratio Fine", -1, 1, 0), semitonesDispFunc),
			withDisplay(floatMeta(SourceID(op, SourceLFOToRatio), g, "LFO to Ratio", -2, 2, 0), octavesDispFunc),
			withDisplay(floatMeta(SourceID(op, SourceLFOToRatioFine), g, "LFO to Ratio Fine", -1, 1, 0), semitonesDispFunc),
			steppedMeta(SourceID(op, SourceWaveform), g, "Waveform", 0, NumWaveforms-1, WaveSine, waveDisp),
			boolMeta(SourceID(op, SourceKeytrack), g, "Keytrack", true),
			withDisplay(floatMeta(SourceID(op, SourceFixedFreq), g, "Fixed Frequency", 1, 2000, 440), frequencyDispFunc),
			steppedMeta(SourceID(op, SourceOctave), g, "Octave Transpose", -3, 3, 0, nil),
			percentMeta(SourceID(op, SourceStartPhase), g, "Start Phase", 0, 1, 0),
			boolMeta(SourceID(op, SourceEnvToAmp), g, "Env to Amp", false),
		)
		ret = append(ret, envMetas(func(stage int) uint32 { return SourceEnvID(op, stage) }, g, 0.7)...)
		ret = append(ret,
			withDisplay(floatMeta(SourceID(op, SourceLFORate), g, "LFO Rate", 0.01, 40, 1), frequencyDispFunc),
			steppedMeta(SourceID(op, SourceLFOShape), g, "LFO Shape", 0, NumWaveforms-1, WaveSine, waveDisp),
			boolMeta(SourceID(op, SourceLFORetrigger), g, "LFO Retrigger", true),
		)
	}
	for op := 0; op < NumOps; op++ {
		g := opName(op)
		ret = append(ret,
			percentMeta(SelfID(op, SelfLevel), g, "Feedback Level", -1, 1, 0),
			boolMeta(SelfID(op, SelfActive), g, "Feedback Active", false),
		)
	}
	for op := 0; op < NumOps; op++ {
		g := opName(op)
		var level float32
		if op == 0 {
			level = 1
		}
		ret = append(ret,
			percentMeta(MixerID(op, MixerLevel), g, "Mixer Level", 0, 1, level),
			boolMeta(MixerID(op, MixerActive), g, "Mixer Active", op == 0),
			withDisplay(floatMeta(MixerID(op, MixerPan), g, "Mixer Pan", -1, 1, 0), panDispFunc),
		)
	}
	modeDisp := enumDispFunc(matrixModeNames[:])
	for e := 0; e < MatrixSize; e++ {
		g := opName(MatrixSourceAt(e)) + " to " + opName(MatrixTargetAt(e))
		ret = append(ret,
			percentMeta(MatrixID(e, MatrixDepth), g, "Depth", -1, 1, 0),
			boolMeta(MatrixID(e, MatrixActive), g, "Active", false),
			steppedMeta(MatrixID(e, MatrixMode), g, "Mode", PhaseModulation, RingModulation, PhaseModulation, modeDisp),
		)
	}
	return ret
}
