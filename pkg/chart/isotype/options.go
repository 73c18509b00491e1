package isotype

import (
	"math"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// PersonShape is the default icon: a standing person as an SVG path.
const PersonShape = "M1.7 -1.7h-0.8c0.3 -0.2 0.6 -0.5 0.6 -0.9c0 -0.6 " +
	"-0.4 -1 -1 -1c-0.6 0 -1 0.4 -1 1c0 0.4 0.2 0.7 0.6 " +
	"0.9h-0.8c-0.4 0 -0.7 0.3 -0.7 0.6v1.9c0 0.3 0.3 0.6 " +
	"0.6 0.6h0.2c0 0 0 0.1 0 0.1v1.9c0 0.3 0.2 0.6 0.3 " +
	"0.6h1.3c0.2 0 0.3 -0.3 0.3 -0.6v-1.8c0 0 0 -0.1 0 " +
	"-0.1h0.2c0.3 0 0.6 -0.3 0.6 -0.6v-2c0.2 -0.3 -0.1 " +
	"-0.6 -0.4 -0.6z"

// CrossShape is the default mark drawn over reduced icons: a single
// diagonal stroke.
const CrossShape = "M -1.7 -2.5 L 2.5 3.5"

// Defaults for [Options].
const (
	DefaultIconSize    = 75.0
	DefaultStrokeColor = "black"
	DefaultStrokeWidth = 1.3
	DefaultWidth       = 350
	DefaultHeight      = 400
)

// Palette holds the icon colours.
type Palette struct {
	Unaffected string `json:"unaffected" toml:"unaffected" yaml:"unaffected"`
	Baseline   string `json:"baseline" toml:"baseline" yaml:"baseline"`
	Exposed    string `json:"exposed" toml:"exposed" yaml:"exposed"`
	Cross      string `json:"cross" toml:"cross" yaml:"cross"`
}

// DefaultPalette is white for the population, slate for baseline events,
// coral for events added by exposure, and blue for the reduction cross.
var DefaultPalette = Palette{
	Unaffected: "#FFFFFF",
	Baseline:   "#4A5568",
	Exposed:    "#FA5765",
	Cross:      "#4078EF",
}

// Hues returns the colours indexed by hue (0 unaffected, 1 baseline, 2 exposed).
func (p Palette) Hues() []string {
	return []string{p.Unaffected, p.Baseline, p.Exposed}
}

// Options configures an icon-array chart. The zero value is usable after
// [Options.SetDefaults].
type Options struct {
	Title []string `json:"title,omitempty" toml:"title" yaml:"title"`

	// SkipConfigure leaves out top-level styling so the chart can still be
	// composed into a larger layout.
	SkipConfigure bool `json:"skip_configure,omitempty" toml:"skip_configure" yaml:"skip_configure"`

	IconShape   string  `json:"icon_shape,omitempty" toml:"icon_shape" yaml:"icon_shape"`
	IconSize    float64 `json:"icon_size,omitempty" toml:"icon_size" yaml:"icon_size"`
	StrokeColor string  `json:"stroke_color,omitempty" toml:"stroke_color" yaml:"stroke_color"`
	NoStroke    bool    `json:"no_stroke,omitempty" toml:"no_stroke" yaml:"no_stroke"`
	StrokeWidth float64 `json:"stroke_width,omitempty" toml:"stroke_width" yaml:"stroke_width"`
	CrossShape  string  `json:"cross_shape,omitempty" toml:"cross_shape" yaml:"cross_shape"`
	CrossWidth  float64 `json:"cross_width,omitempty" toml:"cross_width" yaml:"cross_width"` // 0 derives sqrt(IconSize)/1.7
	Width       int     `json:"chart_width,omitempty" toml:"chart_width" yaml:"chart_width"`
	Height      int     `json:"chart_height,omitempty" toml:"chart_height" yaml:"chart_height"`
	Columns     int     `json:"columns,omitempty" toml:"columns" yaml:"columns"`
	Palette     Palette `json:"palette" toml:"palette" yaml:"palette"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.IconShape == "" {
		o.IconShape = PersonShape
	}
	if o.IconSize == 0 {
		o.IconSize = DefaultIconSize
	}
	if o.StrokeColor == "" {
		o.StrokeColor = DefaultStrokeColor
	}
	if o.StrokeWidth == 0 {
		o.StrokeWidth = DefaultStrokeWidth
	}
	if o.CrossShape == "" {
		o.CrossShape = CrossShape
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	p := &o.Palette
	if p.Unaffected == "" {
		p.Unaffected = DefaultPalette.Unaffected
	}
	if p.Baseline == "" {
		p.Baseline = DefaultPalette.Baseline
	}
	if p.Exposed == "" {
		p.Exposed = DefaultPalette.Exposed
	}
	if p.Cross == "" {
		p.Cross = DefaultPalette.Cross
	}
}

// Validate checks option values. Call after SetDefaults.
func (o *Options) Validate() error {
	if err := errors.ValidateIconShape(o.IconShape); err != nil {
		return err
	}
	if err := errors.ValidateIconShape(o.CrossShape); err != nil {
		return err
	}
	for _, l := range o.Title {
		if err := errors.ValidateLabel("title", l); err != nil {
			return err
		}
	}
	colors := []struct{ field, value string }{
		{"stroke color", o.StrokeColor},
		{"unaffected color", o.Palette.Unaffected},
		{"baseline color", o.Palette.Baseline},
		{"exposed color", o.Palette.Exposed},
		{"cross color", o.Palette.Cross},
	}
	for _, c := range colors {
		if err := errors.ValidateColor(c.field, c.value); err != nil {
			return err
		}
	}
	switch {
	case o.IconSize <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "icon size must be positive, got %g", o.IconSize)
	case o.StrokeWidth < 0:
		return errors.New(errors.ErrCodeInvalidInput, "stroke width must not be negative, got %g", o.StrokeWidth)
	case o.CrossWidth < 0:
		return errors.New(errors.ErrCodeInvalidInput, "cross width must not be negative, got %g", o.CrossWidth)
	case o.Width <= 0 || o.Height <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "chart size must be positive, got %dx%d", o.Width, o.Height)
	case o.Columns < 0:
		return errors.New(errors.ErrCodeInvalidInput, "columns must not be negative, got %d", o.Columns)
	}
	return nil
}

// EffectiveCrossWidth returns CrossWidth, or sqrt(IconSize)/1.7 when unset.
func (o Options) EffectiveCrossWidth() float64 {
	if o.CrossWidth > 0 {
		return o.CrossWidth
	}
	return math.Sqrt(o.IconSize) / 1.7
}
