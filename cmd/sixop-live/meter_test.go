package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sixop/sixop/control"
)

func TestMeterBar(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	tests := []struct {
		peak   float32
		filled int
	}{
		{0, 0},
		{1, meterWidth},
		{2, meterWidth},
		{0.001, 0}, // -60 dB
		{0.031622776, meterWidth / 2}, // -30 dB
	}
	for _, tt := range tests {
		bar := meterBar(tt.peak)
		if got := strings.Count(bar, "#"); got != tt.filled {
			t.Errorf("meterBar(%v) has %d filled cells, want %d", tt.peak, got, tt.filled)
		}
		if got := strings.Count(bar, "#") + strings.Count(bar, "."); got != meterWidth {
			t.Errorf("meterBar(%v) is %d cells wide, want %d", tt.peak, got, meterWidth)
		}
	}
}

func TestRenderMeterShowsDropsOnlyWhenAny(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	m := control.Meter{PeakL: 0.5, PeakR: 0.25, RMS: 0.1, ActiveVoices: 2}
	if out := renderMeter(m, droppedCounts{}); strings.Contains(out, "dropped") {
		t.Errorf("meter without drops mentions them: %q", out)
	}
	out := renderMeter(m, droppedCounts{Messages: 3, Events: 1})
	if !strings.Contains(out, "dropped 3 msgs / 1 events, backlog 0") {
		t.Errorf("meter does not report the drops: %q", out)
	}
	if !strings.Contains(out, "voices 2") {
		t.Errorf("meter does not report the voices: %q", out)
	}
}
