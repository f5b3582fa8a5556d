package synth

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/sixop/sixop"
)

// TableSize is the number of points per waveform cycle. Every table carries
// one extra guard point equal to the first, so the interpolation never needs
// to wrap.
const TableSize = 2048

type wavetable [TableSize + 1]float32

var wavetables = func() (ret [sixop.NumWaveforms]wavetable) {
	for w := range ret {
		fill(&ret[w], waveFuncs[w])
	}
	return
}()

var waveFuncs = [sixop.NumWaveforms]func(x float64) float64{
	sixop.WaveSine: func(x float64) float64 { return math.Sin(2 * math.Pi * x) },
	sixop.WaveSine5: func(x float64) float64 {
		return math.Pow(math.Sin(2*math.Pi*x), 5)
	},
	sixop.WaveSquarish: func(x float64) float64 { return math.Tanh(3 * math.Sin(2*math.Pi*x)) },
	sixop.WaveSawish: func(x float64) float64 {
		var s float64
		for k := 1; k <= 8; k++ {
			s += math.Sin(2*math.Pi*float64(k)*x) / float64(k)
		}
		return s
	},
	sixop.WaveTriangle: func(x float64) float64 {
		switch {
		case x < 0.25:
			return 4 * x
		case x < 0.75:
			return 2 - 4*x
		}
		return 4*x - 4
	},
	sixop.WaveHalfSine: func(x float64) float64 { return max(math.Sin(2*math.Pi*x), 0) },
	sixop.WaveAbsSine:  func(x float64) float64 { return 2*math.Abs(math.Sin(2*math.Pi*x)) - 1 },
	sixop.WavePulseSine: func(x float64) float64 {
		if x < 0.5 {
			return math.Sin(4 * math.Pi * x)
		}
		return 0
	},
}

// fill samples f over one cycle and normalizes the peak to 1.
func fill(t *wavetable, f func(float64) float64) {
	var peak float64
	v := make([]float64, TableSize)
	for i := range v {
		v[i] = f(float64(i) / TableSize)
		peak = max(peak, math.Abs(v[i]))
	}
	if peak == 0 {
		peak = 1
	}
	for i := range v {
		t[i] = float32(v[i] / peak)
	}
	t[TableSize] = t[0]
}

// Waveform returns the value of waveform w at phase (in cycles). Phases
// outside [0,1) are wrapped. Out of range waveforms are treated as sines.
func Waveform(w int, phase float32) float32 {
	if w < 0 || w >= sixop.NumWaveforms {
		w = sixop.WaveSine
	}
	return lookup(&wavetables[w], wrap(phase))
}

// wrap returns the fractional part of x, always in [0,1).
func wrap(x float32) float32 {
	x -= math32.Floor(x)
	if x >= 1 { // x was a tiny negative number
		return 0
	}
	return x
}

// lookup interpolates linearly in t. phase should be in [0,1); anything else
// still stays within the table.
func lookup(t *wavetable, phase float32) float32 {
	x := phase * TableSize
	i := int(x)
	f := x - float32(i)
	i &= TableSize - 1
	return t[i] + (t[i+1]-t[i])*f
}
