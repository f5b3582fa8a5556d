package sixop

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// ParamKind tells how the value of a parameter should be interpreted.
	// Stepped and Bool parameters always hold integral values.
	ParamKind int

	// ParamMeta documents one parameter: its stable identifier, range,
	// default and how it is displayed. ParamMetas are created once, when
	// the Patch is constructed, and never change after that.
	ParamMeta struct {
		ID      uint32
		Name    string // e.g. "Op 1 Ratio"
		Group   string // e.g. "Op 1"
		Min     float32
		Max     float32
		Default float32
		Kind    ParamKind
		Percent bool        // value is a fraction, displayed as percentage
		Display DisplayFunc // optional; when nil, the value is formatted as is
	}

	// DisplayFunc formats a parameter value for humans, returning the value
	// and its unit separately, e.g. ("440.00", "Hz").
	DisplayFunc func(float32) (value string, unit string)

	// Param is a single value in the parameter store, together with its
	// metadata.
	Param struct {
		Value float32
		Meta  *ParamMeta
	}
)

const (
	FloatParam ParamKind = iota
	SteppedParam
	BoolParam
)

// Clamp limits the value to the range of the parameter. Stepped and boolean
// parameters are also rounded to the nearest integer. NaN maps to the default.
func (m *ParamMeta) Clamp(v float32) float32 {
	if v != v {
		return m.Default
	}
	if m.Kind != FloatParam {
		v = float32(math.Round(float64(v)))
	}
	if v < m.Min {
		return m.Min
	}
	if v > m.Max {
		return m.Max
	}
	return v
}

// Steps returns the number of discrete values a stepped or boolean parameter
// can take, or 0 for continuous parameters.
func (m *ParamMeta) Steps() int {
	if m.Kind == FloatParam {
		return 0
	}
	return int(m.Max-m.Min) + 1
}

// Bipolar is true if the range of the parameter is symmetric around zero.
func (m *ParamMeta) Bipolar() bool {
	return m.Min < 0 && m.Max > 0 && m.Min == -m.Max
}

// Format returns the display string of value v, including its unit.
func (m *ParamMeta) Format(v float32) string {
	val, unit := m.FormatParts(v)
	if unit == "" {
		return val
	}
	return val + " " + unit
}

// FormatParts returns the display string of value v and its unit separately.
func (m *ParamMeta) FormatParts(v float32) (string, string) {
	switch {
	case m.Display != nil:
		return m.Display(v)
	case m.Kind == BoolParam:
		if v >= 0.5 {
			return "On", ""
		}
		return "Off", ""
	case m.Percent:
		return strconv.FormatFloat(float64(v)*100, 'f', 1, 32), "%"
	case m.Kind == SteppedParam:
		return strconv.Itoa(int(v)), ""
	}
	return formatFloat(v), ""
}

// Bool returns the value interpreted as a boolean.
func (p *Param) Bool() bool { return p.Value >= 0.5 }

// Int returns the value rounded to the nearest integer.
func (p *Param) Int() int { return int(math.Round(float64(p.Value))) }

func (p *Param) String() string {
	return fmt.Sprintf("%s = %s", p.Meta.Name, p.Meta.Format(p.Value))
}

var titleCaser = cases.Title(language.English)

// enumDispFunc returns a display func for stepped parameters whose values
// name the elements of arr. The names are title cased for display.
func enumDispFunc(arr []string) DisplayFunc {
	titled := make([]string, len(arr))
	for i, s := range arr {
		titled[i] = titleCaser.String(s)
	}
	return func(v float32) (string, string) {
		i := int(math.Round(float64(v)))
		if i < 0 || i >= len(titled) {
			return "???", ""
		}
		return titled[i], ""
	}
}

func ratioDispFunc(v float32) (string, string) {
	return strconv.FormatFloat(math.Exp2(float64(v)), 'f', 3, 64), "x"
}

func octavesDispFunc(v float32) (string, string) {
	return formatFloat(v), "oct"
}

func semitonesDispFunc(v float32) (string, string) {
	return formatFloat(v), "st"
}

func frequencyDispFunc(v float32) (string, string) {
	if v >= 1000 {
		return strconv.FormatFloat(float64(v)/1000, 'f', 2, 64), "kHz"
	}
	return strconv.FormatFloat(float64(v), 'f', 2, 64), "Hz"
}

func timeDispFunc(v float32) (string, string) {
	return engineeringTime(float64(v))
}

func panDispFunc(v float32) (string, string) {
	switch {
	case v < 0:
		return strconv.FormatFloat(float64(-v)*100, 'f', 0, 32), "% L"
	case v > 0:
		return strconv.FormatFloat(float64(v)*100, 'f', 0, 32), "% R"
	}
	return "C", ""
}

func engineeringTime(sec float64) (string, string) {
	if sec == 0 {
		return "0", "s"
	}
	if sec < 1e-3 {
		return fmt.Sprintf("%.2f", sec*1e6), "us"
	} else if sec < 1 {
		return fmt.Sprintf("%.2f", sec*1e3), "ms"
	}
	return fmt.Sprintf("%.2f", sec), "s"
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
