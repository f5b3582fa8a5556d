package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sixop/sixop/control"
)

const meterWidth = 30

var (
	meterLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	meterLow   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	meterHigh  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	meterClip  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	meterDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// meterBar draws a peak level as a bar on a -60..0 dB scale.
func meterBar(peak float32) string {
	db := -60.0
	if peak > 0 {
		db = max(20*math.Log10(float64(peak)), -60)
	}
	n := int(math.Round((db + 60) / 60 * meterWidth))
	n = min(max(n, 0), meterWidth)
	style := meterLow
	switch {
	case peak >= 1:
		style = meterClip
	case db > -6:
		style = meterHigh
	}
	return style.Render(strings.Repeat("#", n)) + meterDim.Render(strings.Repeat(".", meterWidth-n))
}

// droppedCounts tells how much the real-time path had to give up.
type droppedCounts struct {
	Messages uint64 // control messages rejected by a full queue
	Events   uint64 // note events that did not fit in a block
	Backlog  int    // control messages waiting to be resent
}

func (d droppedCounts) String() string {
	return fmt.Sprintf("dropped %d msgs / %d events, backlog %d", d.Messages, d.Events, d.Backlog)
}

func renderMeter(m control.Meter, d droppedCounts) string {
	line := fmt.Sprintf("%s %s\n%s %s  rms %.3f  voices %d",
		meterLabel.Render("L"), meterBar(m.PeakL),
		meterLabel.Render("R"), meterBar(m.PeakR),
		m.RMS, m.ActiveVoices)
	if d != (droppedCounts{}) {
		line += "  " + meterClip.Render(d.String())
	}
	return line
}
