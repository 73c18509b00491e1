package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/chart/forest"
	"github.com/matzehuels/expectedfreq/pkg/dataset"
	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// forestCommand creates the forest command, which builds a forest plot from
// a long-format table of estimates.
func (c *CLI) forestCommand() *cobra.Command {
	var (
		opts      forest.Options
		neutral   float64
		decimals  int
		sheet     string
		where     []string
		output    string
		saveTable string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "forest <file>",
		Short: "Build a forest plot from a table of estimates",
		Long: `Forest reads a long-format table (.csv, .tsv, .json, or .xlsx) with one row
per estimate and writes a Vega-Lite forest plot: a point per estimate with
optional confidence-interval bars and a reference line at the no-effect value.

Use --hue for a colour grouping and --panel for one column facet per value.
--where filters rows before plotting and may be repeated.`,
		Example: `  expectedfreq forest results.csv -x estimate -y model --lower ci_low --upper ci_high --neutral 1
  expectedfreq forest results.xlsx --sheet ipw -x or -y outcome --hue model --logscale -o forest.vl.json
  expectedfreq forest results.csv -x or -y outcome --where model=IPW --with-text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := dataset.Load(args[0], sheet)
			if err != nil {
				return err
			}
			for _, w := range where {
				col, val, ok := strings.Cut(w, "=")
				if !ok || col == "" {
					return errors.New(errors.ErrCodeInvalidInput, "--where expects column=value, got %q", w)
				}
				if !table.Has(col) {
					return errors.New(errors.ErrCodeInvalidInput, "--where column %q not found in data", col)
				}
				table = table.Where(col, val)
			}
			c.Logger.Debug("loaded dataset", "file", args[0], "rows", table.Len(), "columns", len(table.Columns))

			if cmd.Flags().Changed("neutral") {
				opts.Neutral = &neutral
			}
			if cmd.Flags().Changed("decimals") {
				opts.TextDecimals = &decimals
			}

			runner := c.newRunner(cmd.Context(), noCache)
			defer runner.Close()
			data, cached, err := runner.Forest(cmd.Context(), table, opts)
			if err != nil {
				return err
			}

			if saveTable != "" {
				if err := writeTable(saveTable, table); err != nil {
					return err
				}
			}

			if output == stdoutPath {
				_, err := os.Stdout.Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
			}
			printSuccess("Forest plot with %d estimates", table.Len())
			printCacheStatus("", cached)
			printFile(output)
			if saveTable != "" {
				printFile(saveTable)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&opts.X, "x", "x", "", "column with the point estimates")
	fl.StringVarP(&opts.Y, "y", "y", "", "column with the category labels")
	fl.StringVar(&opts.Hue, "hue", "", "column for the colour grouping")
	fl.StringVar(&opts.Lower, "lower", "", "column with the lower confidence bounds")
	fl.StringVar(&opts.Upper, "upper", "", "column with the upper confidence bounds")
	fl.StringVar(&opts.Panel, "panel", "", "column for column facets")
	fl.Float64Var(&neutral, "neutral", 1, "draw a reference line at this no-effect value")
	fl.BoolVar(&opts.LogScale, "logscale", false, "use a log scale for the x axis")
	fl.BoolVar(&opts.NoTooltip, "no-tooltip", false, "omit tooltips")
	fl.BoolVar(&opts.WithText, "with-text", false, "add a column spelling out \"estimate [lower, upper]\"")
	fl.IntVar(&decimals, "decimals", forest.DefaultTextDecimals, "decimals in the text column")
	fl.StringVar(&opts.Title, "title", "", "chart title")
	fl.BoolVar(&opts.SkipConfigure, "skip-configure", false, "omit top-level chart styling")
	fl.StringVar(&sheet, "sheet", "", "worksheet to read from an .xlsx file (default: first)")
	fl.StringArrayVar(&where, "where", nil, "keep rows where column=value (repeatable)")
	fl.StringVarP(&output, "output", "o", stdoutPath, "output file, or - for stdout")
	fl.StringVar(&saveTable, "save-table", "", "also write the filtered table to an .xlsx file")
	fl.BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")

	return cmd
}

// writeTable saves t as an XLSX workbook.
func writeTable(path string, t *dataset.Table) error {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return errors.New(errors.ErrCodeInvalidFormat, "--save-table must end in .xlsx, got %q", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := dataset.WriteXLSX(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
