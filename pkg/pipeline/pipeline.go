// Package pipeline provides the public entry points of expectedfreq.
//
// The pipeline has three stages:
//
//  1. Convert: baseline risk + association measure -> expected frequencies
//  2. Layout: frequencies -> icon placements
//  3. Render: placements -> chart spec, sentences, and output artifacts
//
// The package-level functions run the first stages synchronously and return
// plain values:
//
//	m, _ := risk.ParseMeasure("odds_ratio", 5.21)
//	res, err := pipeline.ExpectedFrequencies(0.102, m, pipeline.Options{})
//	fmt.Println(res.Frequencies.BaselineCount, res.Frequencies.ExposedCount) // 10 37
//
// A [Runner] adds artifact rendering (SVG, PNG, PDF, ...) with caching, for
// use by the CLI and the HTTP server:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	out, err := runner.Execute(ctx, pipeline.Request{Baseline: 0.102, Measure: m})
//	svg := out.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/expectedfreq/pkg/chart/isotype"
	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/phrase"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPopulationSize is the size of the hypothetical population.
	DefaultPopulationSize = risk.DefaultPopulation

	// MaxPopulationSize caps the icon count so a single request stays cheap.
	MaxPopulationSize = 10000

	// MaxPrecision is the most decimals a sentence may show.
	MaxPrecision = 6
)

// Format constants for output formats.
const (
	FormatVegaLite = "vegalite"
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatText     = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatVegaLite: true,
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
	FormatText:     true,
}

// FormatNames lists the formats in display order.
var FormatNames = []string{FormatVegaLite, FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatText}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. The zero value is valid: every field
// has a default applied by [Options.SetDefaults].
type Options struct {
	PopulationSize int `json:"population_size,omitempty" toml:"population_size" yaml:"population_size"`

	// Precision is the number of decimals in the sentences.
	Precision int `json:"precision,omitempty" toml:"precision" yaml:"precision"`

	Description phrase.Description `json:"description" toml:"description" yaml:"description"`

	// PlotText uses the sentences, split at commas, as the chart title.
	PlotText bool `json:"plot_text,omitempty" toml:"plot_text" yaml:"plot_text"`

	// FractionalIcons draws the unrounded exposed frequency, so the last
	// icon is partially filled. By default both counts are whole icons.
	FractionalIcons bool `json:"fractional_icons,omitempty" toml:"fractional_icons" yaml:"fractional_icons"`

	Plot isotype.Options `json:"plot" toml:"plot" yaml:"plot"`

	Bounds      risk.Bounds `json:"bounds" toml:"bounds" yaml:"bounds"`
	ExactHazard bool        `json:"exact_hazard,omitempty" toml:"exact_hazard" yaml:"exact_hazard"`

	// Formats lists the artifacts a Runner renders. Default: vegalite.
	Formats []string `json:"formats,omitempty" toml:"formats" yaml:"formats"`

	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.PopulationSize == 0 {
		o.PopulationSize = DefaultPopulationSize
	}
	o.Plot.SetDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatVegaLite}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. Call after SetDefaults.
func (o *Options) Validate() error {
	if o.PopulationSize <= 0 || o.PopulationSize > MaxPopulationSize {
		return errors.New(errors.ErrCodeInvalidInput,
			"population size must be in [1, %d], got %d", MaxPopulationSize, o.PopulationSize)
	}
	if o.Precision < 0 || o.Precision > MaxPrecision {
		return errors.New(errors.ErrCodeInvalidInput,
			"precision must be in [0, %d], got %d", MaxPrecision, o.Precision)
	}
	if err := o.Description.Validate(); err != nil {
		return err
	}
	if err := o.Plot.Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// RiskOptions returns the conversion options selected by o.
func (o *Options) RiskOptions() []risk.Option {
	opts := []risk.Option{risk.WithBounds(o.Bounds)}
	if o.ExactHazard {
		opts = append(opts, risk.WithExactHazard())
	}
	return opts
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list, dropping blanks and
// duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no formats given")
	}
	return out, nil
}
