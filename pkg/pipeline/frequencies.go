package pipeline

import (
	"github.com/matzehuels/expectedfreq/pkg/chart/forest"
	"github.com/matzehuels/expectedfreq/pkg/chart/isotype"
	"github.com/matzehuels/expectedfreq/pkg/chart/vegalite"
	"github.com/matzehuels/expectedfreq/pkg/dataset"
	"github.com/matzehuels/expectedfreq/pkg/grid"
	"github.com/matzehuels/expectedfreq/pkg/phrase"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// Result is the expected-frequency summary for one measure: the counts, the
// icon-array chart, and the two sentences.
type Result struct {
	Frequencies risk.Frequencies `json:"frequencies"`
	Placements  []grid.Placement `json:"-"`
	Chart       *vegalite.Spec   `json:"chart"`
	Text        phrase.Text      `json:"text"`

	// Plot holds the resolved chart options, including a title taken from
	// Text when PlotText is set. Native sinks draw with the same options.
	Plot isotype.Options `json:"-"`
}

// ExpectedFrequencies converts a baseline risk and association measure into
// expected counts, the icon-array chart, and the sentences.
func ExpectedFrequencies(baseline float64, m risk.Measure, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := convert(baseline, m, opts)
	if err != nil {
		return nil, err
	}
	cells, err := layout(f, opts)
	if err != nil {
		return nil, err
	}
	return assemble(f, cells, opts)
}

// PlotExpectedFrequencies returns only the icon-array chart.
func PlotExpectedFrequencies(baseline float64, m risk.Measure, opts Options) (*vegalite.Spec, error) {
	res, err := ExpectedFrequencies(baseline, m, opts)
	if err != nil {
		return nil, err
	}
	return res.Chart, nil
}

// PhraseExpectedFrequencies returns only the sentences.
func PhraseExpectedFrequencies(baseline float64, m risk.Measure, opts Options) (phrase.Text, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return phrase.Text{}, err
	}
	f, err := convert(baseline, m, opts)
	if err != nil {
		return phrase.Text{}, err
	}
	return phrase.Phrase(f, opts.Description, opts.Precision), nil
}

// ForestPlot returns a forest-plot chart for a long-format table.
func ForestPlot(t *dataset.Table, opts forest.Options) (*vegalite.Spec, error) {
	return forest.Build(t, opts)
}

func convert(baseline float64, m risk.Measure, opts Options) (risk.Frequencies, error) {
	return risk.Convert(baseline, m, opts.PopulationSize, opts.RiskOptions()...)
}

func layout(f risk.Frequencies, opts Options) ([]grid.Placement, error) {
	exposed := float64(f.ExposedCount)
	if opts.FractionalIcons {
		exposed = f.Exposed
	}
	return grid.Overlay(float64(f.BaselineCount), exposed, f.Population, opts.Plot.Columns)
}

func assemble(f risk.Frequencies, cells []grid.Placement, opts Options) (*Result, error) {
	text := phrase.Phrase(f, opts.Description, opts.Precision)

	plot := opts.Plot
	if opts.PlotText {
		plot.Title = text.Lines()
	}
	chart, err := isotype.Build(cells, plot)
	if err != nil {
		return nil, err
	}
	plot.SetDefaults()

	return &Result{
		Frequencies: f,
		Placements:  cells,
		Chart:       chart,
		Text:        text,
		Plot:        plot,
	}, nil
}
