package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxLabelLength bounds free-text labels that end up in sentences and chart titles.
const maxLabelLength = 256

// ValidateLabel validates a free-text label such as a population, event, or
// risk-factor name. Empty labels are allowed; the phrasing simply omits them.
//
// The validation rules are intentionally conservative:
//   - Maximum length of 256 characters
//   - No control characters (newlines would break chart titles)
//   - No null bytes
func ValidateLabel(field, value string) error {
	if len(value) > maxLabelLength {
		return New(ErrCodeInvalidLabel, "%s too long (max %d characters)", field, maxLabelLength)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLabel, "%s contains invalid control characters", field)
		}
	}
	return nil
}

// svgPathRegex matches the characters allowed in an SVG path description:
// command letters, numbers, separators, and exponent markers.
var svgPathRegex = regexp.MustCompile(`^[MmLlHhVvCcSsQqTtAaZz0-9eE.,+\-\s]+$`)

// ValidateIconShape validates a custom icon shape given as an SVG path description.
// Shapes are embedded verbatim in SVG output, so anything outside the path grammar
// alphabet is rejected. Vega-Lite symbol names (e.g. "circle") are also accepted.
func ValidateIconShape(shape string) error {
	if shape == "" {
		return New(ErrCodeInvalidShape, "icon shape cannot be empty")
	}
	if isSymbolName(shape) {
		return nil
	}
	if !svgPathRegex.MatchString(shape) {
		return New(ErrCodeInvalidShape, "icon shape is not a valid SVG path: %q", truncate(shape, 32))
	}
	return nil
}

// symbolNames are the built-in Vega-Lite point shapes.
var symbolNames = map[string]bool{
	"circle": true, "square": true, "cross": true, "diamond": true,
	"triangle-up": true, "triangle-down": true, "triangle-right": true,
	"triangle-left": true, "stroke": true, "arrow": true, "wedge": true, "triangle": true,
}

func isSymbolName(s string) bool { return symbolNames[s] }

// colorRegex matches hex colors (#rgb, #rrggbb) and plain CSS color names.
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// ValidateColor validates a stroke or fill color. An empty string means "no stroke".
func ValidateColor(field, color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "%s is not a valid color: %q", field, truncate(color, 32))
	}
	return nil
}

// ValidateFieldName validates a dataset column reference used in chart encodings.
// Field names are placed into Vega expressions, so quotes and brackets are rejected.
func ValidateFieldName(field, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", field)
	}
	if strings.ContainsAny(name, "\"'[]\\") {
		return New(ErrCodeInvalidInput, "%s contains invalid characters: %q", field, name)
	}
	return ValidateLabel(field, name)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
