package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/render/isotype/sink"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// computeCommand creates the compute command, which prints absolute risks
// and expected counts for one measure.
func (c *CLI) computeCommand() *cobra.Command {
	var (
		mf     measureFlags
		of     optionFlags
		lower  float64
		upper  float64
		noGrid bool
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute expected frequencies for a baseline risk and a measure",
		Long: `Compute converts a baseline risk and an association measure into absolute
risks and expected frequencies in a hypothetical population, and prints them
as a table followed by an icon grid.

Pass --lower and --upper to also convert a confidence interval.`,
		Example: `  expectedfreq compute -b 0.102 -m odds_ratio -x 5.21
  expectedfreq compute -b 0.437 -m or -x 0.36 --lower 0.2 --upper 0.65
  expectedfreq compute -b 0.3 -m percent_change -x -20 -n 1000 --no-grid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.measure()
			if err != nil {
				return err
			}
			opts := c.config.PipelineOptions()
			if err := mf.apply(cmd, &opts); err != nil {
				return err
			}
			of.apply(cmd, &opts)
			opts.Logger = c.Logger

			res, err := pipeline.ExpectedFrequencies(mf.baseline, m, opts)
			if err != nil {
				return err
			}
			rr, err := risk.EquivalentRiskRatio(mf.baseline, m, opts.RiskOptions()...)
			if err != nil {
				return err
			}

			f := res.Frequencies
			fmt.Println(StyleTitle.Render("Expected frequencies"))
			printKeyValue("Measure", fmt.Sprintf("%s %s", m.Kind, strconv.FormatFloat(m.Value, 'g', -1, 64)))
			printKeyValue("Risk ratio", strconv.FormatFloat(risk.Round(rr, 3), 'f', -1, 64))
			printKeyValue("Difference", differenceLine(f))
			fmt.Println(countsTable(f, opts.Precision))

			if cmd.Flags().Changed("lower") || cmd.Flags().Changed("upper") {
				if err := printInterval(mf.baseline, m, lower, upper, opts); err != nil {
					return err
				}
			}

			if !noGrid {
				printNewline()
				fmt.Print(indent(sink.RenderTerminal(res.Placements, res.Plot.Palette), "  "))
			}
			return nil
		},
	}

	mf.register(cmd)
	of.register(cmd)
	cmd.Flags().Float64Var(&lower, "lower", 0, "lower confidence bound of the measure")
	cmd.Flags().Float64Var(&upper, "upper", 0, "upper confidence bound of the measure")
	cmd.Flags().BoolVar(&noGrid, "no-grid", false, "do not print the icon grid")
	cmd.MarkFlagsRequiredTogether("lower", "upper")

	return cmd
}

// printInterval prints the exposed count implied by each confidence bound.
func printInterval(baseline float64, point risk.Measure, lower, upper float64, opts pipeline.Options) error {
	lo := risk.Measure{Kind: point.Kind, Value: lower}
	hi := risk.Measure{Kind: point.Kind, Value: upper}
	if err := lo.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMeasure, err, "lower bound")
	}
	if err := hi.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMeasure, err, "upper bound")
	}

	opts.SetDefaults()
	iv, err := risk.ConvertInterval(baseline, point, lo, hi, opts.PopulationSize, opts.RiskOptions()...)
	if err != nil {
		return err
	}
	printKeyValue("Interval", fmt.Sprintf("%d [%d, %d] out of %d exposed",
		iv.Point.ExposedCount, iv.Lower.ExposedCount, iv.Upper.ExposedCount, iv.Point.Population))
	return nil
}
