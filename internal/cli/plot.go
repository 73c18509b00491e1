package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/render"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// plotCommand creates the plot command, which renders the icon array in one
// or more formats.
func (c *CLI) plotCommand() *cobra.Command {
	var (
		mf      measureFlags
		of      optionFlags
		pf      plotFlags
		formats string
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render an icon array of expected frequencies",
		Long: `Plot renders the expected frequencies as an icon array.

Formats:
  vegalite  Vega-Lite v5 chart specification (default)
  svg       standalone SVG drawn natively
  png, pdf  converted from the SVG (requires rsvg-convert)
  json      icon placements and counts
  txt       the plain-language sentences

Files are written as <output>.<ext>. Use -o - to write a single format to
standard output. Rendered artifacts are cached; --no-cache disables the cache
and --refresh recomputes while still updating it.`,
		Example: `  expectedfreq plot -b 0.102 -x 5.21 -f svg,png -o surgery
  expectedfreq plot -b 0.437 -x 0.36 --plot-text -o - > chart.vl.json`,
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
			pf.apply(cmd, &opts)
			if cmd.Flags().Changed("format") || len(opts.Formats) == 0 {
				if opts.Formats, err = pipeline.ParseFormats(formats); err != nil {
					return err
				}
			}
			if output == stdoutPath && len(opts.Formats) != 1 {
				return errors.New(errors.ErrCodeInvalidInput, "writing to stdout requires exactly one format, got %d", len(opts.Formats))
			}
			if opts.Formats, err = dropUnavailable(opts.Formats); err != nil {
				return err
			}

			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runPlot(ctx, pipeline.Request{Baseline: mf.baseline, Measure: m, Options: opts}, output, noCache, refresh)
		},
	}

	mf.register(cmd)
	of.register(cmd)
	pf.register(cmd)
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatVegaLite, "output formats, comma-separated")
	cmd.Flags().StringVarP(&output, "output", "o", appName, "output file base name, or - for stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runPlot(ctx context.Context, req pipeline.Request, output string, noCache, refresh bool) error {
	logger := loggerFromContext(ctx)
	runner := c.newRunner(ctx, noCache)
	defer runner.Close()
	runner.Refresh = refresh

	var spinner *Spinner
	if output != stdoutPath && needsConverter(req.Options.Formats) {
		spinner = newSpinnerWithContext(ctx, "Rendering...")
		spinner.Start()
	}
	prog := newProgress(logger)
	out, err := runner.Execute(ctx, req)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if output == stdoutPath {
		_, err := os.Stdout.Write(out.Artifacts[req.Options.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(out.Artifacts, req.Options.Formats, output)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d file(s)", len(paths)))

	f := out.Frequencies
	printSuccess("%d → %d out of %d", f.BaselineCount, f.ExposedCount, f.Population)
	printCacheStatus(out.Hash, out.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes one file per format, creating the output directory
// when needed, and returns the paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
		}
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + extension(format)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// extension maps a format to its file extension.
func extension(format string) string {
	if format == pipeline.FormatVegaLite {
		return "vl.json"
	}
	return format
}

func needsConverter(formats []string) bool {
	return slices.Contains(formats, pipeline.FormatPNG) || slices.Contains(formats, pipeline.FormatPDF)
}

// dropUnavailable removes PNG and PDF when rsvg-convert is missing, warning
// for each. It fails only when no format is left.
func dropUnavailable(formats []string) ([]string, error) {
	if render.Available() || !needsConverter(formats) {
		return formats, nil
	}
	kept := make([]string, 0, len(formats))
	for _, f := range formats {
		if f == pipeline.FormatPNG || f == pipeline.FormatPDF {
			printWarning("Skipping %s: rsvg-convert not found", f)
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"png and pdf export require librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}
	return kept, nil
}
