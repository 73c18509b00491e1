package sink

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/expectedfreq/pkg/chart/isotype"
	"github.com/matzehuels/expectedfreq/pkg/grid"
)

// Terminal glyphs.
const (
	GlyphUnaffected = "○"
	GlyphAffected   = "●"
	GlyphPartial    = "◐"
	GlyphReduced    = "✕"
)

// RenderTerminal draws cells as rows of coloured glyphs. Unaffected icons
// use the terminal's default colour since the palette's white is invisible
// on light backgrounds.
func RenderTerminal(cells []grid.Placement, p isotype.Palette) string {
	def := isotype.DefaultPalette
	if p.Baseline == "" {
		p.Baseline = def.Baseline
	}
	if p.Exposed == "" {
		p.Exposed = def.Exposed
	}
	if p.Cross == "" {
		p.Cross = def.Cross
	}

	styles := map[grid.Category]lipgloss.Style{
		grid.Unaffected: lipgloss.NewStyle().Faint(true),
		grid.Baseline:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Baseline)),
		grid.Exposed:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Exposed)),
	}
	cross := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Cross)).Bold(true)

	rows, cols := extent(cells)
	lines := make([][]string, rows)
	for i := range lines {
		lines[i] = make([]string, cols)
		for j := range lines[i] {
			lines[i][j] = " "
		}
	}
	for _, c := range cells {
		lines[c.Row][c.Col] = glyph(c, styles, cross)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(strings.TrimRight(strings.Join(l, " "), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func glyph(c grid.Placement, styles map[grid.Category]lipgloss.Style, cross lipgloss.Style) string {
	switch {
	case c.Reduced:
		return cross.Render(GlyphReduced)
	case c.Category == grid.Unaffected:
		return styles[grid.Unaffected].Render(GlyphUnaffected)
	case c.IsPartial():
		return styles[c.Category].Render(GlyphPartial)
	default:
		return styles[c.Category].Render(GlyphAffected)
	}
}
