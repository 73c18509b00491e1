// Package render converts SVG documents to raster and print formats.
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). The icon
// array sinks in [isotype/sink] draw the SVG themselves and use this
// package for everything else:
//
//	svg := sink.RenderSVG(cells, sink.WithOptions(opts))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [isotype/sink]: github.com/matzehuels/expectedfreq/pkg/render/isotype/sink
package render
