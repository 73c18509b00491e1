// Package isotype builds Vega-Lite specifications for icon arrays.
//
// [Build] takes placements from package grid and returns a spec with one
// point mark per icon, coloured by hue (unaffected, baseline, exposed).
// When the grid shows a risk reduction a second layer draws a cross over
// every reduced icon.
//
// Vega-Lite point marks cannot be clipped, so a partially filled icon is
// drawn with its fill opacity set to the fraction it represents. The native
// SVG sink clips partial icons exactly.
package isotype

import (
	"github.com/matzehuels/expectedfreq/pkg/chart/vegalite"
	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/grid"
)

// Build returns the icon-array spec for cells. Options are defaulted and
// validated on a copy.
func Build(cells []grid.Placement, opts Options) (*vegalite.Spec, error) {
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no icons to plot")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	spec := &vegalite.Spec{
		Schema: vegalite.SchemaURL,
		Width:  opts.Width,
		Height: opts.Height,
		Data:   &vegalite.Data{Values: records(cells)},
	}
	if len(opts.Title) > 0 {
		spec.Title = &vegalite.Title{Text: titleText(opts.Title)}
	}

	icons := iconLayer(opts)
	if hasPartial(cells) {
		icons.Encoding.FillOpacity = &vegalite.Channel{
			Field:  "fill",
			Type:   vegalite.Quantitative,
			Legend: vegalite.Null,
			Scale: &vegalite.Scale{
				Domain: []float64{0, 1},
				Range:  []float64{0, 1},
			},
		}
	}
	if hasReduced(cells) {
		spec.Layer = []*vegalite.Spec{icons, crossLayer(opts)}
	} else {
		spec.Mark = icons.Mark
		spec.Encoding = icons.Encoding
	}

	if !opts.SkipConfigure {
		Configure(spec)
	}
	return spec, nil
}

// Configure applies the icon-array styling: left-aligned title pulled
// towards the grid, and no view border.
func Configure(spec *vegalite.Spec) {
	spec.Config = &vegalite.Config{
		Title: &vegalite.TitleConfig{
			Align:  "left",
			Anchor: "start",
			Offset: vegalite.Float(-10),
		},
		View: &vegalite.ViewConfig{StrokeWidth: vegalite.Float(0)},
	}
}

// record is one row of inline chart data. IDs are 1-based.
type record struct {
	ID      int     `json:"id"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Hue     int     `json:"hue"`
	Reduced bool    `json:"reduced"`
	Fill    float64 `json:"fill"`
}

func records(cells []grid.Placement) []record {
	out := make([]record, len(cells))
	for i, c := range cells {
		out[i] = record{
			ID:      c.Index + 1,
			Row:     c.Row,
			Col:     c.Col,
			Hue:     c.Hue(),
			Reduced: c.Reduced,
			Fill:    c.Fill,
		}
	}
	return out
}

func gridEncoding() *vegalite.Encoding {
	return &vegalite.Encoding{
		X: &vegalite.Channel{Field: "col", Type: vegalite.Ordinal, Axis: vegalite.Null},
		Y: &vegalite.Channel{Field: "row", Type: vegalite.Ordinal, Axis: vegalite.Null},
	}
}

func iconLayer(opts Options) *vegalite.Spec {
	mark := &vegalite.Mark{
		Type:        vegalite.MarkPoint,
		Filled:      vegalite.Bool(true),
		Size:        vegalite.Float(opts.IconSize),
		StrokeWidth: vegalite.Float(opts.StrokeWidth),
	}
	if opts.NoStroke {
		mark.Stroke = vegalite.Null
	} else {
		mark.Stroke = opts.StrokeColor
	}

	enc := gridEncoding()
	enc.Color = &vegalite.Channel{
		Field:  "hue",
		Type:   vegalite.Nominal,
		Legend: vegalite.Null,
		// explicit domain keeps colours stable when a hue is absent
		Scale: &vegalite.Scale{
			Domain: []int{0, 1, 2},
			Range:  opts.Palette.Hues(),
		},
	}
	enc.Shape = &vegalite.Channel{Value: opts.IconShape}
	return &vegalite.Spec{Mark: mark, Encoding: enc}
}

func crossLayer(opts Options) *vegalite.Spec {
	enc := gridEncoding()
	enc.Shape = &vegalite.Channel{Value: opts.CrossShape}
	enc.Opacity = &vegalite.Channel{
		Field:  "reduced",
		Type:   vegalite.Nominal,
		Legend: vegalite.Null,
		Scale: &vegalite.Scale{
			Domain: []bool{false, true},
			Range:  []float64{0, 1},
		},
	}
	return &vegalite.Spec{
		Mark: &vegalite.Mark{
			Type:        vegalite.MarkPoint,
			Filled:      vegalite.Bool(true),
			Stroke:      opts.Palette.Cross,
			StrokeWidth: vegalite.Float(opts.EffectiveCrossWidth()),
			StrokeCap:   "round",
			Size:        vegalite.Float(opts.IconSize),
		},
		Encoding: enc,
	}
}

func hasReduced(cells []grid.Placement) bool {
	for _, c := range cells {
		if c.Reduced {
			return true
		}
	}
	return false
}

// hasPartial reports whether any coloured icon stands for a fraction of a
// person.
func hasPartial(cells []grid.Placement) bool {
	for _, c := range cells {
		if c.Category != grid.Unaffected && c.IsPartial() {
			return true
		}
	}
	return false
}

func titleText(lines []string) any {
	if len(lines) == 1 {
		return lines[0]
	}
	return lines
}
