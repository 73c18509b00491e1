// Package forest builds Vega-Lite forest plots: point estimates with
// confidence-interval error bars, one row per category.
//
// Three layouts are supported:
//
//   - Single: points and bars against a categorical y axis, optionally with
//     a text column that spells out "estimate [lower, upper]".
//   - Hue: a colour variable. Following the seaborn convention, colour is an
//     inner grouping, so the y variable moves into a row facet and the hue
//     variable takes the y axis.
//   - Panel: one column facet per value of the panel variable.
//
// Hue and panel can be combined. The text column cannot be combined with
// either.
package forest

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/expectedfreq/pkg/chart/vegalite"
	"github.com/matzehuels/expectedfreq/pkg/dataset"
	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// Layout constants.
const (
	DefaultTextDecimals = 2
	PointSize           = 80
	TickSize            = 6
	FacetWidth          = 600 // shared by all column panels
	RowHeight           = 10  // per hue level
	FacetSpacing        = 13
	TextSpacing         = 7
)

// textField is the derived column holding the formatted estimate.
const textField = "text"

// Options selects the columns to plot and the layout.
type Options struct {
	X     string `json:"x"`
	Y     string `json:"y"`
	Hue   string `json:"hue,omitempty"`
	Lower string `json:"lower,omitempty"`
	Upper string `json:"upper,omitempty"`
	Panel string `json:"panel,omitempty"`

	// Neutral is the no-effect value, e.g. 1 for ratios. Nil draws no rule.
	Neutral  *float64 `json:"neutral,omitempty"`
	LogScale bool     `json:"logscale,omitempty"`

	NoTooltip    bool `json:"no_tooltip,omitempty"`
	WithText     bool `json:"with_text,omitempty"`
	TextDecimals *int `json:"text_decimals,omitempty"`

	Title         string `json:"title,omitempty"`
	SkipConfigure bool   `json:"skip_configure,omitempty"`
}

func (o Options) hasInterval() bool { return o.Lower != "" && o.Upper != "" }

func (o Options) isFaceted() bool { return o.Hue != "" || o.Panel != "" }

func (o Options) decimals() int {
	if o.TextDecimals == nil {
		return DefaultTextDecimals
	}
	return *o.TextDecimals
}

// Validate checks the options against the table's columns.
func (o Options) Validate(t *dataset.Table) error {
	if o.WithText && o.isFaceted() {
		return errors.New(errors.ErrCodeUnsupported,
			"a text column cannot be combined with hue or panel facets")
	}
	if (o.Lower == "") != (o.Upper == "") {
		return errors.New(errors.ErrCodeInvalidInput, "lower and upper must be given together")
	}
	if o.TextDecimals != nil && (*o.TextDecimals < 0 || *o.TextDecimals > 10) {
		return errors.New(errors.ErrCodeInvalidInput, "text decimals must be in [0, 10], got %d", *o.TextDecimals)
	}
	if err := errors.ValidateLabel("title", o.Title); err != nil {
		return err
	}

	required := []struct{ name, col string }{{"x", o.X}, {"y", o.Y}}
	optional := []struct{ name, col string }{
		{"hue", o.Hue}, {"lower", o.Lower}, {"upper", o.Upper}, {"panel", o.Panel},
	}
	for _, f := range required {
		if err := checkColumn(t, f.name, f.col); err != nil {
			return err
		}
	}
	for _, f := range optional {
		if f.col == "" {
			continue
		}
		if err := checkColumn(t, f.name, f.col); err != nil {
			return err
		}
	}

	for _, col := range []string{o.X, o.Lower, o.Upper} {
		if col != "" && !t.IsNumeric(col) {
			return errors.New(errors.ErrCodeInvalidInput, "column %q must be numeric", col)
		}
	}
	if o.LogScale {
		for _, col := range []string{o.X, o.Lower, o.Upper} {
			if col == "" {
				continue
			}
			if lo, _, ok := t.Range(col); ok && lo <= 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"column %q has non-positive values (min %g) and cannot use a log scale", col, lo)
			}
		}
		if o.Neutral != nil && *o.Neutral <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "neutral value %g cannot use a log scale", *o.Neutral)
		}
	}
	return nil
}

func checkColumn(t *dataset.Table, name, col string) error {
	if err := errors.ValidateFieldName(name, col); err != nil {
		return err
	}
	if !t.Has(col) {
		return errors.New(errors.ErrCodeInvalidInput, "%s column %q not found in data", name, col)
	}
	return nil
}

// Build returns the forest-plot spec for t.
func Build(t *dataset.Table, opts Options) (*vegalite.Spec, error) {
	if t == nil || t.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no rows to plot")
	}
	if err := opts.Validate(t); err != nil {
		return nil, err
	}

	var spec *vegalite.Spec
	if opts.isFaceted() {
		spec = buildFaceted(t, opts)
	} else {
		spec = buildSingle(t, opts)
	}
	spec.Schema = vegalite.SchemaURL
	if opts.Title != "" {
		spec.Title = &vegalite.Title{Text: opts.Title}
	}
	if !opts.SkipConfigure {
		Configure(spec)
	}
	return spec, nil
}

// Configure removes the view border around every panel.
func Configure(spec *vegalite.Spec) {
	spec.Config = &vegalite.Config{
		View: &vegalite.ViewConfig{StrokeWidth: vegalite.Float(0)},
	}
}

func buildSingle(t *dataset.Table, opts Options) *vegalite.Spec {
	tip := tooltip(t, opts)
	layers := chartLayers(opts, opts.Y, "", tip)

	if !opts.WithText {
		return &vegalite.Spec{
			Data:  &vegalite.Data{Values: t.Records()},
			Layer: layers,
		}
	}

	withText := addText(t, opts)
	title := opts.X
	if opts.hasInterval() {
		title += " [95% CI]"
	}
	text := &vegalite.Spec{
		Mark: &vegalite.Mark{Type: vegalite.MarkText, Align: "left"},
		Encoding: &vegalite.Encoding{
			X:    &vegalite.Channel{Value: 0},
			Y:    &vegalite.Channel{Field: opts.Y, Type: vegalite.Nominal, Title: vegalite.Null, Axis: vegalite.Null},
			Text: &vegalite.Channel{Field: textField, Type: vegalite.Nominal},
		},
		Title: &vegalite.Title{
			Text:       title,
			FontWeight: "bold",
			Anchor:     "start",
			FontSize:   vegalite.Float(12),
		},
	}

	return &vegalite.Spec{
		Data:    &vegalite.Data{Values: withText.Records()},
		HConcat: []*vegalite.Spec{{Layer: layers}, text},
		Spacing: vegalite.Float(TextSpacing),
		Resolve: &vegalite.Resolve{Scale: map[string]string{"x": "shared", "y": "shared"}},
	}
}

func buildFaceted(t *dataset.Table, opts Options) *vegalite.Spec {
	y, color := opts.Y, ""
	if opts.Hue != "" {
		// hue takes the y axis; y moves to the row facet
		y, color = opts.Hue, opts.Hue
	}

	inner := &vegalite.Spec{Layer: chartLayers(opts, y, color, tooltip(t, opts))}
	if opts.Hue != "" {
		inner.Height = RowHeight * len(t.Unique(opts.Hue))
	}
	if opts.Panel != "" {
		inner.Width = float64(FacetWidth) / float64(len(t.Unique(opts.Panel)))
	}

	facet := &vegalite.Facet{}
	if opts.Hue != "" {
		facet.Row = &vegalite.Channel{
			Field: opts.Y,
			Type:  vegalite.Nominal,
			Title: vegalite.Null,
			Header: &vegalite.Header{
				LabelAngle:      vegalite.Float(0),
				LabelAlign:      "left",
				LabelFontWeight: "bold",
			},
		}
	}
	if opts.Panel != "" {
		facet.Column = &vegalite.Channel{
			Field: opts.Panel,
			Type:  vegalite.Nominal,
			Title: vegalite.Null,
			Header: &vegalite.Header{
				LabelFontSize:   vegalite.Float(12),
				LabelFontWeight: "bold",
				LabelPadding:    vegalite.Float(5),
			},
		}
	}

	return &vegalite.Spec{
		Data:    &vegalite.Data{Values: t.Records()},
		Facet:   facet,
		Spec:    inner,
		Spacing: vegalite.Float(FacetSpacing),
	}
}

// chartLayers stacks the neutral rule, error bars, and points, back to front.
// A non-empty color field colours bars and points and hides the y axis.
func chartLayers(opts Options, y, color string, tip []vegalite.Channel) []*vegalite.Spec {
	var layers []*vegalite.Spec
	if opts.Neutral != nil {
		layers = append(layers, neutralRule(*opts.Neutral))
	}
	if opts.hasInterval() {
		layers = append(layers, errorBars(opts, y, color))
	}
	return append(layers, points(opts, y, color, tip))
}

func points(opts Options, y, color string, tip []vegalite.Channel) *vegalite.Spec {
	x := &vegalite.Channel{Field: opts.X, Type: vegalite.Quantitative, Title: opts.X}
	if opts.LogScale {
		x.Scale = &vegalite.Scale{Type: "log", Nice: vegalite.Bool(false), Padding: vegalite.Float(10)}
	}
	enc := &vegalite.Encoding{
		X:       x,
		Y:       yChannel(y, color),
		Tooltip: tip,
	}
	if color != "" {
		enc.Color = &vegalite.Channel{Field: color, Type: vegalite.Nominal}
	}
	return &vegalite.Spec{
		Mark: &vegalite.Mark{
			Type:    vegalite.MarkPoint,
			Filled:  vegalite.Bool(true),
			Opacity: vegalite.Float(1),
			Size:    vegalite.Float(PointSize),
		},
		Encoding: enc,
	}
}

func errorBars(opts Options, y, color string) *vegalite.Spec {
	enc := &vegalite.Encoding{
		X:  &vegalite.Channel{Field: opts.Lower, Type: vegalite.Quantitative, Title: ""},
		X2: &vegalite.Channel{Field: opts.Upper, Title: ""},
		Y:  yChannel(y, color),
	}
	if color != "" {
		enc.Color = &vegalite.Channel{Field: color, Type: vegalite.Nominal}
	}
	return &vegalite.Spec{
		Mark: &vegalite.Mark{
			Type:  vegalite.MarkErrorBar,
			Ticks: map[string]any{"size": TickSize},
			Color: "black",
		},
		Encoding: enc,
	}
}

func neutralRule(v float64) *vegalite.Spec {
	return &vegalite.Spec{
		Transform: []vegalite.Transform{{
			Calculate: strconv.FormatFloat(v, 'g', -1, 64),
			As:        "neutral",
		}},
		Mark: &vegalite.Mark{
			Type:        vegalite.MarkRule,
			Color:       "grey",
			StrokeDash:  []float64{8, 8},
			StrokeWidth: vegalite.Float(1.3),
		},
		Encoding: &vegalite.Encoding{
			X: &vegalite.Channel{Field: "neutral", Type: vegalite.Quantitative},
		},
	}
}

func yChannel(field, color string) *vegalite.Channel {
	ch := &vegalite.Channel{Field: field, Type: vegalite.Nominal}
	if color != "" {
		ch.Title = vegalite.Null
		ch.Axis = vegalite.Null
	}
	return ch
}

// tooltip lists every column, numeric ones as quantitative.
func tooltip(t *dataset.Table, opts Options) []vegalite.Channel {
	if opts.NoTooltip {
		return nil
	}
	tip := make([]vegalite.Channel, 0, len(t.Columns))
	for _, c := range t.Columns {
		typ := vegalite.Nominal
		if t.IsNumeric(c) {
			typ = vegalite.Quantitative
		}
		tip = append(tip, vegalite.Channel{Field: c, Type: typ})
	}
	return tip
}

// addText returns a copy of t with the formatted estimate in textField.
func addText(t *dataset.Table, opts Options) *dataset.Table {
	out := t.Clone()
	if !out.Has(textField) {
		out.Columns = append(out.Columns, textField)
	}
	for _, r := range out.Rows {
		r[textField] = FormatEffect(r, opts)
	}
	return out
}

// FormatEffect renders "x [lower, upper]" for one row with the configured
// decimals. Missing estimates yield an empty string.
func FormatEffect(r dataset.Row, opts Options) string {
	x, ok := r[opts.X].(float64)
	if !ok {
		return ""
	}
	d := opts.decimals()
	text := fmt.Sprintf("%.*f", d, x)
	if opts.hasInterval() {
		lo, okLo := r[opts.Lower].(float64)
		hi, okHi := r[opts.Upper].(float64)
		if okLo && okHi {
			text += fmt.Sprintf(" [%.*f, %.*f]", d, lo, d, hi)
		}
	}
	return text
}
