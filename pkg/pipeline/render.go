package pipeline

import (
	"context"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/render/isotype/sink"
)

// Render produces one artifact for res in the given format.
func Render(ctx context.Context, res *Result, format string) ([]byte, error) {
	svgOpts := []sink.SVGOption{sink.WithOptions(res.Plot)}

	switch format {
	case FormatVegaLite:
		return res.Chart.JSON()
	case FormatSVG:
		return sink.RenderSVG(res.Placements, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, res.Placements, sink.WithPNGSVGOptions(svgOpts...))
	case FormatPDF:
		return sink.RenderPDF(ctx, res.Placements, svgOpts...)
	case FormatJSON:
		return sink.RenderJSON(res.Placements, sink.WithFrequencies(res.Frequencies))
	case FormatText:
		return []byte(res.Text.String()), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}
