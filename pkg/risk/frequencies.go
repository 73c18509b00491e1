package risk

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// DefaultPopulation is the hypothetical population size used when none is given.
const DefaultPopulation = 100

// Frequencies holds the absolute risks and expected frequencies for one measure.
type Frequencies struct {
	Population    int     `json:"population"`
	BaselineRisk  float64 `json:"baseline_risk"`
	ExposedRisk   float64 `json:"exposed_risk"`
	Baseline      float64 `json:"baseline"`       // population × baseline risk, unrounded
	Exposed       float64 `json:"exposed"`        // population × exposed risk, unrounded
	BaselineCount int     `json:"baseline_count"` // Baseline rounded half away from zero
	ExposedCount  int     `json:"exposed_count"`  // Exposed rounded half away from zero
}

// IsReduction reports whether exposure lowers the expected count.
func (f Frequencies) IsReduction() bool { return f.ExposedCount < f.BaselineCount }

// Difference returns ExposedCount - BaselineCount.
func (f Frequencies) Difference() int { return f.ExposedCount - f.BaselineCount }

// Convert computes absolute risks and expected frequencies in a population
// of the given size. A population of 0 uses [DefaultPopulation].
func Convert(baseline float64, m Measure, population int, opts ...Option) (Frequencies, error) {
	if population == 0 {
		population = DefaultPopulation
	}
	if population < 0 {
		return Frequencies{}, errors.New(errors.ErrCodeInvalidInput, "population size must be positive, got %d", population)
	}

	exposed, err := ExposedRisk(baseline, m, opts...)
	if err != nil {
		return Frequencies{}, err
	}

	f := Frequencies{
		Population:   population,
		BaselineRisk: baseline,
		ExposedRisk:  exposed,
		Baseline:     float64(population) * baseline,
		Exposed:      float64(population) * exposed,
	}
	if f.BaselineCount, err = Count(f.Baseline); err != nil {
		return Frequencies{}, err
	}
	if f.ExposedCount, err = Count(f.Exposed); err != nil {
		return Frequencies{}, err
	}
	return f, nil
}

// Round rounds x half away from zero to the given number of decimal places.
// NaN inputs are returned unchanged.
func Round(x float64, places int) float64 {
	r, err := stats.Round(x, places)
	if err != nil {
		return x
	}
	return r
}

// Count rounds an expected frequency to a whole number of individuals.
// Non-finite frequencies are rejected.
func Count(x float64) (int, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "expected frequency must be finite, got %g", x)
	}
	return int(Round(x, 0)), nil
}

// Interval is an expected-frequency estimate with confidence bounds.
type Interval struct {
	Point Frequencies `json:"point"`
	Lower Frequencies `json:"lower"`
	Upper Frequencies `json:"upper"`
}

// ConvertInterval converts a point estimate and its confidence bounds.
// All three measures must share a kind and satisfy lower ≤ point ≤ upper.
// Because every conversion is monotone in the measure value, the bounds of
// the exposed frequency follow directly from the bounds of the measure.
func ConvertInterval(baseline float64, point, lower, upper Measure, population int, opts ...Option) (Interval, error) {
	if lower.Kind != point.Kind || upper.Kind != point.Kind {
		return Interval{}, errors.New(errors.ErrCodeInvalidMeasure,
			"interval bounds must share the point estimate's kind (%s)", point.Kind)
	}
	if lower.Value > point.Value || point.Value > upper.Value {
		return Interval{}, errors.New(errors.ErrCodeInvalidMeasure,
			"interval must satisfy lower ≤ point ≤ upper, got %g, %g, %g", lower.Value, point.Value, upper.Value)
	}

	var (
		iv  Interval
		err error
	)
	if iv.Point, err = Convert(baseline, point, population, opts...); err != nil {
		return Interval{}, err
	}
	if iv.Lower, err = Convert(baseline, lower, population, opts...); err != nil {
		return Interval{}, err
	}
	if iv.Upper, err = Convert(baseline, upper, population, opts...); err != nil {
		return Interval{}, err
	}
	return iv, nil
}
