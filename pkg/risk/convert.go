package risk

import (
	"math"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// Bounds selects what happens when a ratio pushes the exposed risk above 1.
type Bounds int

const (
	// BoundsClamp clamps the exposed risk to 1. This is the default.
	BoundsClamp Bounds = iota
	// BoundsReject fails with an INVALID_RISK_BOUNDS error.
	BoundsReject
)

// String returns the policy name used in config files and flags.
func (b Bounds) String() string {
	if b == BoundsReject {
		return "reject"
	}
	return "clamp"
}

// ParseBounds parses "clamp" or "reject". The empty string means clamp.
func ParseBounds(s string) (Bounds, error) {
	switch s {
	case "", "clamp":
		return BoundsClamp, nil
	case "reject":
		return BoundsReject, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid bounds policy %q (must be 'clamp' or 'reject')", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Bounds) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bounds) UnmarshalText(text []byte) error {
	v, err := ParseBounds(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Option configures a conversion.
type Option func(*config)

type config struct {
	bounds      Bounds
	exactHazard bool
}

// WithBounds sets the policy for exposed risks above 1.
func WithBounds(b Bounds) Option { return func(c *config) { c.bounds = b } }

// WithExactHazard converts hazard ratios with the proportional-hazards
// relation 1-(1-p)^HR instead of treating them as risk ratios.
func WithExactHazard() Option { return func(c *config) { c.exactHazard = true } }

func newConfig(opts ...Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ValidateBaseline checks that a baseline risk lies strictly inside (0, 1).
func ValidateBaseline(p float64) error {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return errors.New(errors.ErrCodeOutOfRange, "baseline risk must be in (0, 1), got %g", p)
	}
	return nil
}

// ExposedRisk returns the absolute risk in the exposed group.
func ExposedRisk(baseline float64, m Measure, opts ...Option) (float64, error) {
	if err := ValidateBaseline(baseline); err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if m.IsNull() {
		// keep the identity exact instead of round-tripping through odds
		return baseline, nil
	}
	exposed, err := newConfig(opts...).exposed(baseline, m)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(exposed) || exposed < 0 || exposed > 1 {
		return 0, errors.New(errors.ErrCodeInternal,
			"%s %g on baseline %g gave exposed risk %g", m.Kind, m.Value, baseline, exposed)
	}
	return exposed, nil
}

func (c config) exposed(baseline float64, m Measure) (float64, error) {
	switch m.Kind {
	case OddsRatio:
		return riskFromOdds(odds(baseline) * m.Value), nil
	case HazardRatio:
		if c.exactHazard {
			return 1 - math.Pow(1-baseline, m.Value), nil
		}
		return c.scale(baseline, m.Value)
	case RiskRatio:
		return c.scale(baseline, m.Value)
	case PercentChange:
		return c.scale(baseline, 1+m.Value/100)
	}
	// unreachable: Validate rejects unknown kinds
	return 0, errors.New(errors.ErrCodeUnknownMeasureKind, "unknown measure kind %d", int(m.Kind))
}

// EquivalentRiskRatio returns the risk ratio that, multiplied by the baseline
// risk, yields the exposed risk for m. Bounds are not applied.
func EquivalentRiskRatio(baseline float64, m Measure, opts ...Option) (float64, error) {
	if err := ValidateBaseline(baseline); err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	cfg := newConfig(opts...)

	switch m.Kind {
	case OddsRatio:
		return m.Value / (1 - baseline + m.Value*baseline), nil
	case HazardRatio:
		if cfg.exactHazard {
			return (1 - math.Pow(1-baseline, m.Value)) / baseline, nil
		}
		return m.Value, nil
	case PercentChange:
		return 1 + m.Value/100, nil
	default:
		return m.Value, nil
	}
}

// OddsRatioFromRisks recovers the odds ratio implied by a pair of absolute risks.
// It is the inverse of the odds-ratio branch of [ExposedRisk].
func OddsRatioFromRisks(baseline, exposed float64) (float64, error) {
	if err := ValidateBaseline(baseline); err != nil {
		return 0, err
	}
	if math.IsNaN(exposed) || exposed <= 0 || exposed >= 1 {
		return 0, errors.New(errors.ErrCodeOutOfRange, "exposed risk must be in (0, 1), got %g", exposed)
	}
	return odds(exposed) / odds(baseline), nil
}

func (c config) scale(baseline, rr float64) (float64, error) {
	exposed := baseline * rr
	if exposed > 1 {
		if c.bounds == BoundsReject {
			return 0, errors.New(errors.ErrCodeInvalidRiskBounds,
				"exposed risk %g exceeds 1 (baseline %g × ratio %g)", exposed, baseline, rr)
		}
		return 1, nil
	}
	return exposed, nil
}

func odds(p float64) float64 { return p / (1 - p) }

// riskFromOdds maps odds back to a risk. Odds that overflowed to +Inf are
// a certain event.
func riskFromOdds(o float64) float64 {
	if math.IsInf(o, 1) {
		return 1
	}
	return o / (1 + o)
}
