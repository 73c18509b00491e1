package risk

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

func nan() float64 { return math.NaN() }

func mustMeasure(t *testing.T, k Kind, v float64) Measure {
	t.Helper()
	m, err := NewMeasure(k, v)
	if err != nil {
		t.Fatalf("NewMeasure(%v, %g) error: %v", k, v, err)
	}
	return m
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"odds_ratio", OddsRatio, false},
		{"Odds Ratio", OddsRatio, false},
		{"odds-ratio", OddsRatio, false},
		{"OR", OddsRatio, false},
		{"hazard_ratio", HazardRatio, false},
		{"risk_ratio", RiskRatio, false},
		{"relative_risk", RiskRatio, false},
		{"percentage_change", PercentChange, false},
		{"percent_change", PercentChange, false},
		{"  risk_ratio  ", RiskRatio, false},

		{"", 0, true},
		{"rate_ratio", 0, true},
		{"odds", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeUnknownMeasureKind) {
					t.Errorf("ParseKind(%q) code = %v, want %v", tt.input, errors.GetCode(err), errors.ErrCodeUnknownMeasureKind)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	for _, name := range Kinds() {
		var k Kind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", name, err)
		}
		out, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error: %v", k, err)
		}
		if string(out) != name {
			t.Errorf("MarshalText() = %q, want %q", out, name)
		}
	}

	if _, err := Kind(99).MarshalText(); err == nil {
		t.Error("MarshalText() on unknown kind should fail")
	}
}

func TestMeasureValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Measure
		wantErr errors.Code
	}{
		{"positive OR", Measure{OddsRatio, 5.21}, ""},
		{"small HR", Measure{HazardRatio, 0.01}, ""},
		{"negative pct", Measure{PercentChange, -99.9}, ""},
		{"large pct", Measure{PercentChange, 250}, ""},

		{"zero OR", Measure{OddsRatio, 0}, errors.ErrCodeInvalidMeasure},
		{"negative OR", Measure{OddsRatio, -1.2}, errors.ErrCodeInvalidMeasure},
		{"zero RR", Measure{RiskRatio, 0}, errors.ErrCodeInvalidMeasure},
		{"negative HR", Measure{HazardRatio, -0.5}, errors.ErrCodeInvalidMeasure},
		{"pct at -100", Measure{PercentChange, -100}, errors.ErrCodeInvalidMeasure},
		{"pct below -100", Measure{PercentChange, -150}, errors.ErrCodeInvalidMeasure},
		{"NaN", Measure{RiskRatio, nan()}, errors.ErrCodeInvalidMeasure},
		{"unknown kind", Measure{Kind(42), 1}, errors.ErrCodeUnknownMeasureKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() code = %v, want %v", errors.GetCode(err), tt.wantErr)
			}
		})
	}
}

func TestExposedRisk(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		m        Measure
		want     float64
	}{
		{"odds ratio increase", 0.102, Measure{OddsRatio, 5.21}, 0.3717732},
		{"odds ratio decrease", 0.437, Measure{OddsRatio, 0.36}, 0.2184029},
		{"risk ratio", 0.2, Measure{RiskRatio, 1.5}, 0.3},
		{"hazard ratio as risk ratio", 0.2, Measure{HazardRatio, 1.5}, 0.3},
		{"percentage increase", 0.2, Measure{PercentChange, 25}, 0.25},
		{"percentage decrease", 0.2, Measure{PercentChange, -50}, 0.1},
		{"risk ratio clamped", 0.6, Measure{RiskRatio, 2}, 1},
		{"percentage clamped", 0.8, Measure{PercentChange, 100}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExposedRisk(tt.baseline, tt.m)
			if err != nil {
				t.Fatalf("ExposedRisk() error: %v", err)
			}
			if !scalar.EqualWithinAbs(got, tt.want, 1e-5) {
				t.Errorf("ExposedRisk(%g, %v) = %.7f, want %.7f", tt.baseline, tt.m, got, tt.want)
			}
		})
	}
}

func TestExposedRiskExactHazard(t *testing.T) {
	m := Measure{HazardRatio, 2}
	got, err := ExposedRisk(0.3, m, WithExactHazard())
	if err != nil {
		t.Fatalf("ExposedRisk() error: %v", err)
	}
	// 1 - 0.7^2
	if !scalar.EqualWithinAbs(got, 0.51, 1e-12) {
		t.Errorf("ExposedRisk() = %g, want 0.51", got)
	}

	// Exact transform never exceeds 1, even where the approximation would clamp.
	got, err = ExposedRisk(0.6, Measure{HazardRatio, 3}, WithExactHazard(), WithBounds(BoundsReject))
	if err != nil {
		t.Fatalf("ExposedRisk() error: %v", err)
	}
	if got >= 1 {
		t.Errorf("ExposedRisk() = %g, want < 1", got)
	}
}

func TestExposedRiskRejectBounds(t *testing.T) {
	_, err := ExposedRisk(0.6, Measure{RiskRatio, 2}, WithBounds(BoundsReject))
	if !errors.Is(err, errors.ErrCodeInvalidRiskBounds) {
		t.Fatalf("ExposedRisk() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidRiskBounds)
	}

	// Exactly 1 is not out of bounds.
	got, err := ExposedRisk(0.5, Measure{RiskRatio, 2}, WithBounds(BoundsReject))
	if err != nil {
		t.Fatalf("ExposedRisk() error: %v", err)
	}
	if got != 1 {
		t.Errorf("ExposedRisk() = %g, want 1", got)
	}
}

func TestExposedRiskErrors(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		m        Measure
		want     errors.Code
	}{
		{"baseline zero", 0, Measure{OddsRatio, 2}, errors.ErrCodeOutOfRange},
		{"baseline one", 1, Measure{OddsRatio, 2}, errors.ErrCodeOutOfRange},
		{"baseline negative", -0.1, Measure{OddsRatio, 2}, errors.ErrCodeOutOfRange},
		{"baseline NaN", nan(), Measure{OddsRatio, 2}, errors.ErrCodeOutOfRange},
		{"OR zero", 0.3, Measure{OddsRatio, 0}, errors.ErrCodeInvalidMeasure},
		{"OR negative", 0.3, Measure{OddsRatio, -2}, errors.ErrCodeInvalidMeasure},
		{"pct -100", 0.3, Measure{PercentChange, -100}, errors.ErrCodeInvalidMeasure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExposedRisk(tt.baseline, tt.m)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ExposedRisk() code = %v, want %v", errors.GetCode(err), tt.want)
			}
			if got != 0 {
				t.Errorf("ExposedRisk() returned %g alongside an error", got)
			}
		})
	}
}

func TestExposedRiskProperties(t *testing.T) {
	baselines := []float64{0.001, 0.01, 0.05, 0.102, 0.25, 0.437, 0.5, 0.75, 0.9, 0.999}
	ratios := []float64{0.01, 0.1, 0.36, 0.5, 1, 1.5, 2, 5.21, 10, 100, 1e308, math.MaxFloat64}

	for _, p := range baselines {
		for _, or := range ratios {
			exposed, err := ExposedRisk(p, Measure{OddsRatio, or})
			if err != nil {
				t.Fatalf("ExposedRisk(%g, OR %g) error: %v", p, or, err)
			}
			if exposed < 0 || exposed > 1 {
				t.Errorf("ExposedRisk(%g, OR %g) = %g, outside [0, 1]", p, or, exposed)
			}
			if or == 1 && exposed != p {
				t.Errorf("ExposedRisk(%g, OR 1) = %g, want identity", p, exposed)
			}
			if or > 1 && exposed <= p {
				t.Errorf("ExposedRisk(%g, OR %g) = %g, want increase", p, or, exposed)
			}
			if or < 1 && exposed >= p {
				t.Errorf("ExposedRisk(%g, OR %g) = %g, want decrease", p, or, exposed)
			}

			// Round trip through the inverse transform.
			if exposed > 0 && exposed < 1 {
				back, err := OddsRatioFromRisks(p, exposed)
				if err != nil {
					t.Fatalf("OddsRatioFromRisks(%g, %g) error: %v", p, exposed, err)
				}
				if !scalar.EqualWithinRel(back, or, 1e-8) {
					t.Errorf("round trip OR %g → %g", or, back)
				}
			}
		}
	}
}

func TestIdentityAcrossKinds(t *testing.T) {
	for _, m := range []Measure{{OddsRatio, 1}, {HazardRatio, 1}, {RiskRatio, 1}, {PercentChange, 0}} {
		for _, opts := range [][]Option{nil, {WithExactHazard()}} {
			got, err := ExposedRisk(0.3, m, opts...)
			if err != nil {
				t.Fatalf("ExposedRisk(%v) error: %v", m, err)
			}
			if got != 0.3 {
				t.Errorf("ExposedRisk(0.3, %v) = %g, want 0.3", m, got)
			}
		}
	}
}

func TestEquivalentRiskRatio(t *testing.T) {
	tests := []struct {
		name string
		m    Measure
		opts []Option
	}{
		{"odds ratio", Measure{OddsRatio, 5.21}, nil},
		{"hazard ratio", Measure{HazardRatio, 1.8}, nil},
		{"exact hazard ratio", Measure{HazardRatio, 1.8}, []Option{WithExactHazard()}},
		{"risk ratio", Measure{RiskRatio, 0.7}, nil},
		{"percentage change", Measure{PercentChange, -30}, nil},
	}

	const p = 0.2
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, err := EquivalentRiskRatio(p, tt.m, tt.opts...)
			if err != nil {
				t.Fatalf("EquivalentRiskRatio() error: %v", err)
			}
			exposed, err := ExposedRisk(p, tt.m, tt.opts...)
			if err != nil {
				t.Fatalf("ExposedRisk() error: %v", err)
			}
			if !scalar.EqualWithinAbs(p*rr, exposed, 1e-12) {
				t.Errorf("baseline × RR = %g, ExposedRisk = %g", p*rr, exposed)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name         string
		baseline     float64
		m            Measure
		population   int
		wantBaseline int
		wantExposed  int
	}{
		{"readme example", 0.102, Measure{OddsRatio, 5.21}, 100, 10, 37},
		{"risk reduction", 0.437, Measure{OddsRatio, 0.36}, 100, 44, 22},
		{"default population", 0.102, Measure{OddsRatio, 5.21}, 0, 10, 37},
		{"thousand", 0.102, Measure{OddsRatio, 5.21}, 1000, 102, 372},
		{"half rounds up", 0.125, Measure{RiskRatio, 3}, 20, 3, 8},
		{"clamped", 0.6, Measure{RiskRatio, 2}, 100, 60, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Convert(tt.baseline, tt.m, tt.population)
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			if f.BaselineCount != tt.wantBaseline {
				t.Errorf("BaselineCount = %d, want %d", f.BaselineCount, tt.wantBaseline)
			}
			if f.ExposedCount != tt.wantExposed {
				t.Errorf("ExposedCount = %d, want %d", f.ExposedCount, tt.wantExposed)
			}
		})
	}
}

func TestConvertReduction(t *testing.T) {
	f, err := Convert(0.437, Measure{OddsRatio, 0.36}, 100)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if f.ExposedRisk >= f.BaselineRisk {
		t.Errorf("ExposedRisk = %g, want < %g", f.ExposedRisk, f.BaselineRisk)
	}
	if !f.IsReduction() {
		t.Error("IsReduction() = false, want true")
	}
	if f.Difference() != -22 {
		t.Errorf("Difference() = %d, want -22", f.Difference())
	}
}

func TestConvertInvalidPopulation(t *testing.T) {
	_, err := Convert(0.2, Measure{RiskRatio, 1.2}, -5)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Convert() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{36.5, 0, 37},
		{37.5, 0, 38},
		{36.49, 0, 36},
		{-2.5, 0, -3},
		{10.25, 1, 10.3},
		{3.14159, 2, 3.14},
	}

	for _, tt := range tests {
		if got := Round(tt.x, tt.places); !scalar.EqualWithinAbs(got, tt.want, 1e-9) {
			t.Errorf("Round(%g, %d) = %g, want %g", tt.x, tt.places, got, tt.want)
		}
	}

	for _, x := range []float64{nan(), math.Inf(1), math.Inf(-1)} {
		if _, err := Count(x); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Count(%g) error = %v, want INVALID_INPUT", x, err)
		}
	}
	if got, err := Count(36.5); err != nil || got != 37 {
		t.Errorf("Count(36.5) = %d, %v, want 37", got, err)
	}
}

func TestConvertHugeOddsRatio(t *testing.T) {
	for _, or := range []float64{1e308, math.MaxFloat64} {
		for _, p := range []float64{0.001, 0.5, 0.9, 0.999} {
			exposed, err := ExposedRisk(p, Measure{OddsRatio, or})
			if err != nil || exposed != 1 {
				t.Errorf("ExposedRisk(%g, OR %g) = %g, %v, want 1", p, or, exposed, err)
			}

			f, err := Convert(p, Measure{OddsRatio, or}, 100)
			if err != nil {
				t.Fatalf("Convert(%g, OR %g) error: %v", p, or, err)
			}
			if f.ExposedCount != 100 || math.IsNaN(f.Exposed) {
				t.Errorf("Convert(%g, OR %g) exposed = %g (%d), want 100", p, or, f.Exposed, f.ExposedCount)
			}
		}
	}
}

func TestConvertInterval(t *testing.T) {
	point := mustMeasure(t, RiskRatio, 1.67)
	lower := mustMeasure(t, RiskRatio, 1.17)
	upper := mustMeasure(t, RiskRatio, 2.36)

	iv, err := ConvertInterval(0.1, point, lower, upper, 100)
	if err != nil {
		t.Fatalf("ConvertInterval() error: %v", err)
	}
	if iv.Lower.ExposedCount != 12 || iv.Point.ExposedCount != 17 || iv.Upper.ExposedCount != 24 {
		t.Errorf("counts = %d/%d/%d, want 12/17/24",
			iv.Lower.ExposedCount, iv.Point.ExposedCount, iv.Upper.ExposedCount)
	}

	if _, err := ConvertInterval(0.1, point, upper, lower, 100); !errors.Is(err, errors.ErrCodeInvalidMeasure) {
		t.Errorf("swapped bounds code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidMeasure)
	}

	mixed := mustMeasure(t, OddsRatio, 1.1)
	if _, err := ConvertInterval(0.1, point, mixed, upper, 100); !errors.Is(err, errors.ErrCodeInvalidMeasure) {
		t.Errorf("mixed kinds code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidMeasure)
	}
}

func TestParseBounds(t *testing.T) {
	for in, want := range map[string]Bounds{"": BoundsClamp, "clamp": BoundsClamp, "reject": BoundsReject} {
		got, err := ParseBounds(in)
		if err != nil || got != want {
			t.Errorf("ParseBounds(%q) = %v, %v; want %v", in, got, err, want)
		}
		if in != "" && got.String() != in {
			t.Errorf("String() = %q, want %q", got.String(), in)
		}
	}
	if _, err := ParseBounds("wrap"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("ParseBounds(wrap) code = %v", errors.GetCode(err))
	}
}
