package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/expectedfreq/pkg/chart/isotype"
	"github.com/matzehuels/expectedfreq/pkg/grid"
)

const (
	titleLineHeight = 17.0
	titleFontSize   = 13.0
	padding         = 8.0
)

// clipNamespace scopes clip-path ids so two charts inlined into the same
// HTML page share ids only for identical fills.
var clipNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/expectedfreq/clip"))

// symbolPaths approximates the named Vega-Lite symbols on a unit scale.
var symbolPaths = map[string]string{
	"circle":         "M-1 0a1 1 0 1 0 2 0a1 1 0 1 0 -2 0z",
	"square":         "M-1 -1h2v2h-2z",
	"diamond":        "M0 -1L1 0L0 1L-1 0z",
	"cross":          "M-0.35 -1h0.7v0.65h0.65v0.7h-0.65v0.65h-0.7v-0.65h-0.65v-0.7h0.65z",
	"triangle":       "M0 -1L1 0.8H-1z",
	"triangle-up":    "M0 -1L1 0.8H-1z",
	"triangle-down":  "M0 1L1 -0.8H-1z",
	"triangle-right": "M1 0L-0.8 1V-1z",
	"triangle-left":  "M-1 0L0.8 1V-1z",
	"stroke":         "M-1 0H1",
	"arrow":          "M-0.1 1V-0.4H-0.5L0 -1L0.5 -0.4H0.1V1z",
	"wedge":          "M0 -1L0.3 1H-0.3z",
}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	opts isotype.Options
}

// WithOptions sets the chart options. Unset fields take their defaults.
func WithOptions(o isotype.Options) SVGOption {
	return func(r *svgRenderer) { r.opts = o }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}
	r.opts.SetDefaults()
	return r
}

// RenderSVG draws cells as a standalone SVG document.
func RenderSVG(cells []grid.Placement, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	o := r.opts
	rows, cols := extent(cells)

	top := padding
	if len(o.Title) > 0 {
		top += titleLineHeight*float64(len(o.Title)) + padding
	}
	width, height := float64(o.Width), float64(o.Height)
	cellW := (width - 2*padding) / float64(max(cols, 1))
	cellH := (height - top - padding) / float64(max(rows, 1))
	scale := iconScale(o.IconSize)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)

	clips := clipIDs(cells)
	renderDefs(&buf, clips)
	renderTitle(&buf, o.Title)

	shape := pathFor(o.IconShape)
	cross := pathFor(o.CrossShape)
	for _, c := range cells {
		cx := padding + cellW*(float64(c.Col)+0.5)
		cy := top + cellH*(float64(c.Row)+0.5)
		fmt.Fprintf(&buf, `  <g id="icon-%d" transform="translate(%.2f %.2f) scale(%.3f)">`+"\n", c.Index+1, cx, cy, scale)
		renderIcon(&buf, c, shape, o, clips)
		if c.Reduced {
			fmt.Fprintf(&buf, `    <path d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" vector-effect="non-scaling-stroke"/>`+"\n",
				cross, o.Palette.Cross, o.EffectiveCrossWidth())
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderIcon draws the unaffected silhouette and, for affected icons, the
// category colour on top, clipped when the icon is only partly affected.
func renderIcon(buf *bytes.Buffer, c grid.Placement, shape string, o isotype.Options, clips map[float64]string) {
	stroke := fmt.Sprintf(` stroke="%s" stroke-width="%.2f" vector-effect="non-scaling-stroke"`, o.StrokeColor, o.StrokeWidth)
	if o.NoStroke {
		stroke = ""
	}
	hues := o.Palette.Hues()

	if c.Category == grid.Unaffected || c.IsPartial() {
		fmt.Fprintf(buf, `    <path d="%s" fill="%s"%s/>`+"\n", shape, o.Palette.Unaffected, stroke)
	}
	if c.Category == grid.Unaffected {
		return
	}
	if c.IsPartial() {
		if c.Fill <= 0 {
			return
		}
		fmt.Fprintf(buf, `    <path d="%s" fill="%s" clip-path="url(#%s)"/>`+"\n", shape, hues[c.Hue()], clips[c.Fill])
		return
	}
	fmt.Fprintf(buf, `    <path d="%s" fill="%s"%s/>`+"\n", shape, hues[c.Hue()], stroke)
}

func renderDefs(buf *bytes.Buffer, clips map[float64]string) {
	if len(clips) == 0 {
		return
	}
	fills := make([]float64, 0, len(clips))
	for f := range clips {
		fills = append(fills, f)
	}
	sort.Float64s(fills)

	buf.WriteString("  <defs>\n")
	for _, f := range fills {
		fmt.Fprintf(buf, `    <clipPath id="%s" clipPathUnits="objectBoundingBox"><rect x="0" y="0" width="%.4f" height="1"/></clipPath>`+"\n",
			clips[f], f)
	}
	buf.WriteString("  </defs>\n")
}

func renderTitle(buf *bytes.Buffer, lines []string) {
	for i, l := range lines {
		weight := "normal"
		if i == 0 {
			weight = "bold"
		}
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="%.0f" font-weight="%s">%s</text>`+"\n",
			padding, padding+titleLineHeight*float64(i+1)-4, titleFontSize, weight, html.EscapeString(l))
	}
}

// clipIDs assigns one deterministic id per distinct partial fill.
func clipIDs(cells []grid.Placement) map[float64]string {
	ids := make(map[float64]string)
	for _, c := range cells {
		if c.Category == grid.Unaffected || !c.IsPartial() || c.Fill <= 0 {
			continue
		}
		if _, ok := ids[c.Fill]; !ok {
			ids[c.Fill] = "clip-" + uuid.NewSHA1(clipNamespace, []byte(fmt.Sprintf("%.6f", c.Fill))).String()
		}
	}
	return ids
}

func extent(cells []grid.Placement) (rows, cols int) {
	for _, c := range cells {
		rows = max(rows, c.Row+1)
		cols = max(cols, c.Col+1)
	}
	return rows, cols
}

// iconScale maps a Vega-Lite point size (area in px²) to a path scale
// factor for shapes drawn on a roughly unit-radius grid.
func iconScale(size float64) float64 {
	return math.Sqrt(size) / 2
}

func pathFor(shape string) string {
	if p, ok := symbolPaths[shape]; ok {
		return p
	}
	return shape
}
