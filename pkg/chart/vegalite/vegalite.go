// Package vegalite defines the subset of the Vega-Lite v5 grammar produced
// by the chart builders in this module.
//
// Specs are plain structs that marshal to Vega-Lite JSON. Optional numeric
// and boolean properties are pointers so that zero values can be told apart
// from unset ones; use [Float] and [Bool] to set them inline. Properties
// that Vega-Lite distinguishes from "unset" by an explicit null (axis,
// legend, title) are typed any and accept [Null].
//
// The package does not render anything. Feed the JSON to any Vega-Lite
// runtime (vega-embed, vl-convert, an Altair notebook) to draw it.
package vegalite

import (
	"bytes"
	"encoding/json"
)

// SchemaURL is the $schema stamped on top-level specs.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Null marshals to a JSON null. Assign it to an any-typed property to
// switch the corresponding Vega-Lite feature off (e.g. Axis: Null).
var Null = json.RawMessage("null")

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Field types.
const (
	Quantitative = "quantitative"
	Ordinal      = "ordinal"
	Nominal      = "nominal"
)

// Mark types.
const (
	MarkPoint    = "point"
	MarkRule     = "rule"
	MarkText     = "text"
	MarkErrorBar = "errorbar"
)

// Spec is a unit, layered, concatenated, or faceted view. Only the fields
// relevant to the view's kind are set.
type Spec struct {
	Schema      string      `json:"$schema,omitempty"`
	Title       *Title      `json:"title,omitempty"`
	Width       any         `json:"width,omitempty"`
	Height      any         `json:"height,omitempty"`
	Data        *Data       `json:"data,omitempty"`
	Transform   []Transform `json:"transform,omitempty"`
	Mark        *Mark       `json:"mark,omitempty"`
	Encoding    *Encoding   `json:"encoding,omitempty"`
	Layer       []*Spec     `json:"layer,omitempty"`
	HConcat     []*Spec     `json:"hconcat,omitempty"`
	VConcat     []*Spec     `json:"vconcat,omitempty"`
	Facet       *Facet      `json:"facet,omitempty"`
	Spec        *Spec       `json:"spec,omitempty"`
	Spacing     *float64    `json:"spacing,omitempty"`
	Resolve     *Resolve    `json:"resolve,omitempty"`
	Config      *Config     `json:"config,omitempty"`
	Description string      `json:"description,omitempty"`
}

// JSON encodes the spec with two-space indentation and without HTML escaping,
// so SVG path strings survive untouched.
func (s *Spec) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Title is a view title. Text is a string or a []string of lines.
type Title struct {
	Text       any      `json:"text"`
	Align      string   `json:"align,omitempty"`
	Anchor     string   `json:"anchor,omitempty"`
	Offset     *float64 `json:"offset,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontWeight string   `json:"fontWeight,omitempty"`
}

// Data holds inline records.
type Data struct {
	Values any `json:"values"`
}

// Transform is a calculate transform.
type Transform struct {
	Calculate string `json:"calculate,omitempty"`
	As        string `json:"as,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// Mark describes a mark and its static properties.
type Mark struct {
	Type        string    `json:"type"`
	Filled      *bool     `json:"filled,omitempty"`
	Opacity     *float64  `json:"opacity,omitempty"`
	Size        *float64  `json:"size,omitempty"`
	Shape       string    `json:"shape,omitempty"`
	Color       string    `json:"color,omitempty"`
	Stroke      any       `json:"stroke,omitempty"`
	StrokeWidth *float64  `json:"strokeWidth,omitempty"`
	StrokeCap   string    `json:"strokeCap,omitempty"`
	StrokeDash  []float64 `json:"strokeDash,omitempty"`
	Align       string    `json:"align,omitempty"`
	Ticks       any       `json:"ticks,omitempty"`
}

// Encoding maps data fields to visual channels.
type Encoding struct {
	X           *Channel  `json:"x,omitempty"`
	X2          *Channel  `json:"x2,omitempty"`
	Y           *Channel  `json:"y,omitempty"`
	Color       *Channel  `json:"color,omitempty"`
	Shape       *Channel  `json:"shape,omitempty"`
	Opacity     *Channel  `json:"opacity,omitempty"`
	FillOpacity *Channel  `json:"fillOpacity,omitempty"`
	Size        *Channel  `json:"size,omitempty"`
	Text        *Channel  `json:"text,omitempty"`
	Tooltip     []Channel `json:"tooltip,omitempty"`
}

// Channel is a field or value definition for one encoding channel.
type Channel struct {
	Field  string  `json:"field,omitempty"`
	Type   string  `json:"type,omitempty"`
	Value  any     `json:"value,omitempty"`
	Title  any     `json:"title,omitempty"`
	Axis   any     `json:"axis,omitempty"`
	Legend any     `json:"legend,omitempty"`
	Scale  *Scale  `json:"scale,omitempty"`
	Header *Header `json:"header,omitempty"`
	Sort   any     `json:"sort,omitempty"`
}

// Scale configures a channel's scale.
type Scale struct {
	Type    string   `json:"type,omitempty"`
	Domain  any      `json:"domain,omitempty"`
	Range   any      `json:"range,omitempty"`
	Nice    *bool    `json:"nice,omitempty"`
	Padding *float64 `json:"padding,omitempty"`
	Zero    *bool    `json:"zero,omitempty"`
}

// Header configures facet headers.
type Header struct {
	LabelAngle      *float64 `json:"labelAngle,omitempty"`
	LabelAlign      string   `json:"labelAlign,omitempty"`
	LabelFontSize   *float64 `json:"labelFontSize,omitempty"`
	LabelFontWeight string   `json:"labelFontWeight,omitempty"`
	LabelPadding    *float64 `json:"labelPadding,omitempty"`
}

// Facet splits a view into rows and/or columns.
type Facet struct {
	Row    *Channel `json:"row,omitempty"`
	Column *Channel `json:"column,omitempty"`
}

// Resolve controls scale sharing across composed views.
type Resolve struct {
	Scale map[string]string `json:"scale,omitempty"`
}

// Config holds top-level styling. A configured spec can no longer be
// composed into a larger layout.
type Config struct {
	Title *TitleConfig `json:"title,omitempty"`
	View  *ViewConfig  `json:"view,omitempty"`
}

// TitleConfig sets default title properties.
type TitleConfig struct {
	Align  string   `json:"align,omitempty"`
	Anchor string   `json:"anchor,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
}

// ViewConfig sets default view properties.
type ViewConfig struct {
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
}

// IsConfigured reports whether the spec carries top-level config.
func (s *Spec) IsConfigured() bool { return s != nil && s.Config != nil }

// Layers returns the spec's layers, or the spec itself for a unit view.
func (s *Spec) Layers() []*Spec {
	if len(s.Layer) > 0 {
		return s.Layer
	}
	return []*Spec{s}
}
