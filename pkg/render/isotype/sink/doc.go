// Package sink renders icon arrays without a Vega-Lite runtime.
//
// [RenderSVG] draws the grid directly. Partially affected icons are clipped
// to their fill fraction, and reduced icons carry the cross overlay. PNG and
// PDF go through SVG and rsvg-convert. [RenderJSON] exports the placements
// with a summary, and [RenderTerminal] prints coloured glyphs.
//
// Every sink takes the same [isotype.Options] used for Vega-Lite output, so
// a chart looks the same whichever format is requested.
//
// [isotype.Options]: github.com/matzehuels/expectedfreq/pkg/chart/isotype#Options
package sink
