package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m exploreModel, keys ...string) exploreModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(exploreModel)
	}
	return m
}

func TestExploreModelAdjust(t *testing.T) {
	start := newExploreModel(0.1, risk.Measure{Kind: risk.OddsRatio, Value: 2}, pipeline.Options{})

	tests := []struct {
		name         string
		keys         []string
		wantBaseline float64
		wantMeasure  risk.Measure
	}{
		{"baseline up", []string{"right"}, 0.11, risk.Measure{Kind: risk.OddsRatio, Value: 2}},
		{"baseline fine down", []string{"H"}, 0.099, risk.Measure{Kind: risk.OddsRatio, Value: 2}},
		{"value up", []string{"down", "right", "right"}, 0.1, risk.Measure{Kind: risk.OddsRatio, Value: 2.2}},
		{"value wraps field", []string{"up", "left"}, 0.1, risk.Measure{Kind: risk.OddsRatio, Value: 1.9}},
		{"baseline clamps", []string{"left", "left", "left", "left", "left", "left", "left", "left", "left", "left", "left"}, 0.001, risk.Measure{Kind: risk.OddsRatio, Value: 2}},
		{"cycle to risk ratio", []string{"m"}, 0.1, risk.Measure{Kind: risk.RiskRatio, Value: 2}},
		{"cycle to percent", []string{"m", "m", "m"}, 0.1, risk.Measure{Kind: risk.PercentChange, Value: 100}},
		{"cycle back to odds", []string{"m", "m", "m", "m"}, 0.1, risk.Measure{Kind: risk.OddsRatio, Value: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(start, tt.keys...)
			if m.Baseline != tt.wantBaseline {
				t.Errorf("baseline = %g, want %g", m.Baseline, tt.wantBaseline)
			}
			if m.Measure != tt.wantMeasure {
				t.Errorf("measure = %+v, want %+v", m.Measure, tt.wantMeasure)
			}
			if m.err != nil {
				t.Errorf("unexpected error: %v", m.err)
			}
		})
	}
}

func TestExploreModelRecomputes(t *testing.T) {
	m := newExploreModel(0.102, risk.Measure{Kind: risk.OddsRatio, Value: 5.21}, pipeline.Options{})
	if got := m.res.Frequencies.ExposedCount; got != 37 {
		t.Fatalf("exposed count = %d, want 37", got)
	}

	m = press(m, "m") // risk ratio 5.21
	if got := m.res.Frequencies.ExposedCount; got != 53 {
		t.Errorf("exposed count after switching to risk ratio = %d, want 53", got)
	}

	view := m.View()
	for _, want := range []string{"risk_ratio", "5.21", "out of 100"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestExploreModelQuit(t *testing.T) {
	m := newExploreModel(0.2, risk.Measure{Kind: risk.RiskRatio, Value: 1}, pipeline.Options{})
	for _, msg := range []tea.KeyMsg{key("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		if _, cmd := m.Update(msg); cmd == nil {
			t.Errorf("%s should quit", msg)
		}
	}
	if _, cmd := m.Update(key("x")); cmd != nil {
		t.Error("unbound key should not return a command")
	}
}
