package sink

import (
	"encoding/json"

	"github.com/matzehuels/expectedfreq/pkg/grid"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

type jsonDocument struct {
	Population  int               `json:"population"`
	Rows        int               `json:"rows"`
	Columns     int               `json:"columns"`
	Frequencies *risk.Frequencies `json:"frequencies,omitempty"`
	Summary     grid.Summary      `json:"summary"`
	Icons       []grid.Placement  `json:"icons"`
}

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonDocument)

// WithFrequencies embeds the computed frequencies in the export.
func WithFrequencies(f risk.Frequencies) JSONOption {
	return func(d *jsonDocument) { d.Frequencies = &f }
}

// RenderJSON exports cells with their grid shape and summary.
func RenderJSON(cells []grid.Placement, opts ...JSONOption) ([]byte, error) {
	rows, cols := extent(cells)
	doc := jsonDocument{
		Population: len(cells),
		Rows:       rows,
		Columns:    cols,
		Summary:    grid.Summarize(cells),
		Icons:      cells,
	}
	for _, opt := range opts {
		opt(&doc)
	}
	if doc.Icons == nil {
		doc.Icons = []grid.Placement{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
