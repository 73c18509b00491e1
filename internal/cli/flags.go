package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// =============================================================================
// Measure Flags
// =============================================================================

// measureFlags are the inputs of every conversion command.
type measureFlags struct {
	baseline    float64
	kind        string
	value       float64
	bounds      string
	exactHazard bool
}

func (f *measureFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64VarP(&f.baseline, "baseline", "b", 0, "baseline risk in the unexposed group, in (0, 1)")
	fl.StringVarP(&f.kind, "measure", "m", "odds_ratio", "measure kind ("+strings.Join(risk.Kinds(), ", ")+")")
	fl.Float64VarP(&f.value, "value", "x", 0, "measure value, e.g. 5.21 for an odds ratio or -20 for a 20% decrease")
	fl.StringVar(&f.bounds, "bounds", "", "policy when a ratio pushes the exposed risk above 1 (clamp, reject)")
	fl.BoolVar(&f.exactHazard, "exact-hazard", false, "convert hazard ratios with 1-(1-p)^HR")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("value")
}

// measure parses the measure flags.
func (f *measureFlags) measure() (risk.Measure, error) {
	return risk.ParseMeasure(f.kind, f.value)
}

// apply overrides the conversion settings of opts with flags the user set.
func (f *measureFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	if cmd.Flags().Changed("bounds") {
		b, err := risk.ParseBounds(f.bounds)
		if err != nil {
			return err
		}
		opts.Bounds = b
	}
	if cmd.Flags().Changed("exact-hazard") {
		opts.ExactHazard = f.exactHazard
	}
	return nil
}

// =============================================================================
// Option Flags
// =============================================================================

// optionFlags override the pipeline options loaded from the config file.
// Only flags set on the command line take effect.
type optionFlags struct {
	population int
	precision  int
	fractional bool

	populationName string
	eventName      string
	riskFactorName string
	followup       string
}

func (f *optionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.population, "population", "n", pipeline.DefaultPopulationSize, "size of the hypothetical population")
	fl.IntVar(&f.precision, "precision", 0, "decimals shown in sentences")
	fl.BoolVar(&f.fractional, "fractional", false, "draw the unrounded exposed frequency as a partial icon")
	fl.StringVar(&f.populationName, "population-name", "", "who the population is, e.g. \"hospitalized men\"")
	fl.StringVar(&f.eventName, "event", "", "the outcome, e.g. \"acute respiratory disorder\"")
	fl.StringVar(&f.riskFactorName, "risk-factor", "", "the exposure, e.g. \"go through surgery\"")
	fl.StringVar(&f.followup, "followup", "", "the follow-up period, e.g. \"3 years\"")
}

func (f *optionFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	if changed("population") {
		opts.PopulationSize = f.population
	}
	if changed("precision") {
		opts.Precision = f.precision
	}
	if changed("fractional") {
		opts.FractionalIcons = f.fractional
	}
	d := &opts.Description
	if changed("population-name") {
		d.PopulationName = f.populationName
	}
	if changed("event") {
		d.EventName = f.eventName
	}
	if changed("risk-factor") {
		d.RiskFactorName = f.riskFactorName
	}
	if changed("followup") {
		d.FollowupDuration = f.followup
	}
}

// =============================================================================
// Plot Flags
// =============================================================================

// plotFlags override the icon-array styling.
type plotFlags struct {
	plotText      bool
	title         []string
	skipConfigure bool
	shape         string
	size          float64
	columns       int
	width         int
	height        int
	noStroke      bool
	baseColor     string
	exposedColor  string
}

func (f *plotFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.plotText, "plot-text", false, "use the sentences as the chart title")
	fl.StringArrayVar(&f.title, "title", nil, "chart title line (repeatable)")
	fl.BoolVar(&f.skipConfigure, "skip-configure", false, "omit top-level chart styling")
	fl.StringVar(&f.shape, "icon-shape", "", "icon shape: a Vega-Lite symbol name or an SVG path")
	fl.Float64Var(&f.size, "icon-size", 0, "icon area in square pixels")
	fl.IntVar(&f.columns, "columns", 0, "icons per row (default ceil(sqrt(population)))")
	fl.IntVar(&f.width, "width", 0, "chart width in pixels")
	fl.IntVar(&f.height, "height", 0, "chart height in pixels")
	fl.BoolVar(&f.noStroke, "no-stroke", false, "draw icons without an outline")
	fl.StringVar(&f.baseColor, "baseline-color", "", "colour of baseline events")
	fl.StringVar(&f.exposedColor, "exposed-color", "", "colour of events added by exposure")
}

func (f *plotFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	p := &opts.Plot
	if changed("plot-text") {
		opts.PlotText = f.plotText
	}
	if changed("title") {
		p.Title = f.title
	}
	if changed("skip-configure") {
		p.SkipConfigure = f.skipConfigure
	}
	if changed("icon-shape") {
		p.IconShape = f.shape
	}
	if changed("icon-size") {
		p.IconSize = f.size
	}
	if changed("columns") {
		p.Columns = f.columns
	}
	if changed("width") {
		p.Width = f.width
	}
	if changed("height") {
		p.Height = f.height
	}
	if changed("no-stroke") {
		p.NoStroke = f.noStroke
	}
	if changed("baseline-color") {
		p.Palette.Baseline = f.baseColor
	}
	if changed("exposed-color") {
		p.Palette.Exposed = f.exposedColor
	}
}
