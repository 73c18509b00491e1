package grid

import (
	"math"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// Category tags an icon by the group it represents.
type Category int

const (
	// Unaffected icons stand for individuals without the event.
	Unaffected Category = iota
	// Baseline icons have the event regardless of exposure.
	Baseline
	// Exposed icons have the event only under exposure.
	Exposed
)

var categoryNames = [...]string{"unaffected", "baseline", "exposed"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Placement is a single icon in the grid.
type Placement struct {
	Index    int      `json:"id"`
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Fill     float64  `json:"fill"`
	Category Category `json:"category"`
	// Reduced marks a baseline icon that exposure removes from the event
	// count. For a fractional exposed count the first reduced icon keeps
	// Fill as the share that is still affected.
	Reduced bool `json:"reduced,omitempty"`
}

// Hue returns the colour index used by chart encodings:
// 0 unaffected, 1 baseline, 2 exposed.
func (p Placement) Hue() int { return int(p.Category) }

// IsPartial reports whether the icon is only partially filled.
func (p Placement) IsPartial() bool { return p.Fill < 1 }

// DefaultColumns returns ceil(sqrt(population)), the column count used when
// none is configured.
func DefaultColumns(population int) int {
	if population <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(population))))
}

// Rows returns the number of rows needed for population icons.
func Rows(population, columns int) int {
	if population <= 0 || columns <= 0 {
		return 0
	}
	return (population + columns - 1) / columns
}

// Layout places population icons and marks the first count of them as
// Baseline. Columns ≤ 0 selects [DefaultColumns].
func Layout(count float64, population, columns int) ([]Placement, error) {
	if err := validate(population, count); err != nil {
		return nil, err
	}
	cells := blank(population, columns)
	mark(cells, 0, count, Baseline)
	return cells, nil
}

// Overlay places a baseline and an exposed count in one grid.
//
// The baseline count is rounded half away from zero and drawn first. When
// exposed ≥ baseline, the following icons up to the exposed count are
// Exposed, the last one partially filled for a fractional count. When
// exposed < baseline, the trailing baseline icons beyond the exposed count
// are marked Reduced.
func Overlay(baseline, exposed float64, population, columns int) ([]Placement, error) {
	if err := validate(population, baseline); err != nil {
		return nil, err
	}
	if err := validate(population, exposed); err != nil {
		return nil, err
	}

	b, err := risk.Count(baseline)
	if err != nil {
		return nil, err
	}
	cells := blank(population, columns)
	mark(cells, 0, float64(b), Baseline)

	if exposed >= float64(b) {
		mark(cells, b, exposed, Exposed)
		return cells, nil
	}

	whole := int(exposed)
	frac := exposed - float64(whole)
	for i := whole; i < b; i++ {
		cells[i].Reduced = true
	}
	if frac > 0 {
		cells[whole].Fill = frac
	}
	return cells, nil
}

// Summary counts the icons in each group. Partial icons contribute their Fill.
type Summary struct {
	Unaffected float64 `json:"unaffected"`
	Baseline   float64 `json:"baseline"`
	Exposed    float64 `json:"exposed"`
	Reduced    float64 `json:"reduced"`
}

// Summarize tallies placements. A partially filled reduced icon splits into
// its still-affected share (Baseline) and the crossed-out rest (Reduced).
func Summarize(cells []Placement) Summary {
	var s Summary
	for _, c := range cells {
		switch {
		case c.Reduced && c.IsPartial():
			s.Baseline += c.Fill
			s.Reduced += 1 - c.Fill
		case c.Reduced:
			s.Reduced++
		case c.Category == Unaffected:
			s.Unaffected++
		case c.Category == Baseline:
			s.Baseline += c.Fill
			s.Unaffected += 1 - c.Fill
		case c.Category == Exposed:
			s.Exposed += c.Fill
			s.Unaffected += 1 - c.Fill
		}
	}
	return s
}

func validate(population int, count float64) error {
	if population <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "population must be positive, got %d", population)
	}
	if math.IsNaN(count) || math.IsInf(count, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "count must be finite, got %g", count)
	}
	if count < 0 || count > float64(population) {
		return errors.New(errors.ErrCodeInvalidInput, "count %g outside [0, %d]", count, population)
	}
	return nil
}

func blank(population, columns int) []Placement {
	if columns <= 0 {
		columns = DefaultColumns(population)
	}
	cells := make([]Placement, population)
	for i := range cells {
		cells[i] = Placement{Index: i, Row: i / columns, Col: i % columns, Fill: 1}
	}
	return cells
}

// mark tags icons [from, count) with cat; a fractional tail becomes one
// partially filled icon.
func mark(cells []Placement, from int, count float64, cat Category) {
	whole := int(count)
	for i := from; i < whole; i++ {
		cells[i].Category = cat
	}
	if frac := count - float64(whole); frac > 0 && whole < len(cells) && whole >= from {
		cells[whole].Category = cat
		cells[whole].Fill = frac
	}
}
