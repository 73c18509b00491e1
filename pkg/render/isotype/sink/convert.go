package sink

import (
	"context"

	"github.com/matzehuels/expectedfreq/pkg/grid"
	"github.com/matzehuels/expectedfreq/pkg/render"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svgOpts []SVGOption
	scale   float64
}

// WithPNGSVGOptions passes options through to the underlying SVG renderer.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svgOpts = opts }
}

// WithScale sets the PNG scale factor (default 2.0).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// RenderPNG renders cells as PNG via SVG conversion.
func RenderPNG(ctx context.Context, cells []grid.Placement, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	return render.ToPNG(ctx, RenderSVG(cells, r.svgOpts...), r.scale)
}

// RenderPDF renders cells as PDF via SVG conversion.
func RenderPDF(ctx context.Context, cells []grid.Placement, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(cells, opts...))
}
