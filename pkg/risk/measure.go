package risk

import (
	"math"
	"strings"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// Kind identifies the type of association measure.
type Kind int

// Supported measure kinds.
const (
	OddsRatio Kind = iota + 1
	HazardRatio
	RiskRatio
	PercentChange
)

// kindNames maps each kind to its canonical string form.
var kindNames = map[Kind]string{
	OddsRatio:     "odds_ratio",
	HazardRatio:   "hazard_ratio",
	RiskRatio:     "risk_ratio",
	PercentChange: "percentage_change",
}

// kindAliases accepts the canonical names plus the spellings people actually type.
var kindAliases = map[string]Kind{
	"odds_ratio":        OddsRatio,
	"or":                OddsRatio,
	"hazard_ratio":      HazardRatio,
	"hr":                HazardRatio,
	"risk_ratio":        RiskRatio,
	"relative_risk":     RiskRatio,
	"rr":                RiskRatio,
	"percentage_change": PercentChange,
	"percent_change":    PercentChange,
	"pct":               PercentChange,
}

// Kinds returns the canonical names of all supported kinds, in declaration order.
func Kinds() []string {
	return []string{
		kindNames[OddsRatio],
		kindNames[HazardRatio],
		kindNames[RiskRatio],
		kindNames[PercentChange],
	}
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsRatio reports whether the kind is a multiplicative ratio (OR, HR, RR).
func (k Kind) IsRatio() bool {
	return k == OddsRatio || k == HazardRatio || k == RiskRatio
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, errors.New(errors.ErrCodeUnknownMeasureKind, "unknown measure kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a measure kind name. Matching is case-insensitive and
// treats dashes and spaces as underscores, so "Odds Ratio" and "odds-ratio"
// both parse. "relative_risk" is accepted as an alias of "risk_ratio".
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if k, ok := kindAliases[norm]; ok {
		return k, nil
	}
	return 0, errors.New(errors.ErrCodeUnknownMeasureKind,
		"unknown measure kind %q (supported: %s)", s, strings.Join(Kinds(), ", "))
}

// Measure is a tagged association measure value.
type Measure struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
}

// NewMeasure creates a validated measure.
func NewMeasure(kind Kind, value float64) (Measure, error) {
	m := Measure{Kind: kind, Value: value}
	if err := m.Validate(); err != nil {
		return Measure{}, err
	}
	return m, nil
}

// ParseMeasure parses the kind name and validates the value.
func ParseMeasure(kind string, value float64) (Measure, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Measure{}, err
	}
	return NewMeasure(k, value)
}

// Validate checks the measure value against its kind.
// Ratios must be finite and strictly positive; percentage changes must be
// finite and strictly greater than -100 (anything lower implies a
// non-positive exposed risk).
func (m Measure) Validate() error {
	if _, ok := kindNames[m.Kind]; !ok {
		return errors.New(errors.ErrCodeUnknownMeasureKind, "unknown measure kind %d", int(m.Kind))
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return errors.New(errors.ErrCodeInvalidMeasure, "%s must be finite, got %g", m.Kind, m.Value)
	}
	if m.Kind == PercentChange {
		if m.Value <= -100 {
			return errors.New(errors.ErrCodeInvalidMeasure,
				"percentage change must be greater than -100, got %g", m.Value)
		}
		return nil
	}
	if m.Value <= 0 {
		return errors.New(errors.ErrCodeInvalidMeasure, "%s must be positive, got %g", m.Kind, m.Value)
	}
	return nil
}

// IsNull reports whether the measure describes no association
// (a ratio of 1 or a change of 0%).
func (m Measure) IsNull() bool {
	if m.Kind == PercentChange {
		return m.Value == 0
	}
	return m.Value == 1
}
