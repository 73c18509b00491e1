// Package risk converts relative measures of association into absolute risk
// and expected frequencies.
//
// # Overview
//
// A study typically reports an effect as an odds ratio, hazard ratio, risk
// ratio, or percentage change, relative to the risk in an unexposed group.
// Readers understand absolute numbers better: "out of 100 people, 10 would
// have the event without the risk factor and 37 with it". This package does
// that arithmetic.
//
// Every measure is first mapped to an equivalent risk ratio, then multiplied
// by the baseline risk:
//
//   - Odds ratio: exposed odds = baseline odds × OR, converted back to a risk.
//   - Risk ratio: exposed = baseline × RR.
//   - Hazard ratio: treated as a risk ratio (a short follow-up approximation).
//     [WithExactHazard] applies 1-(1-p)^HR instead.
//   - Percentage change: RR = 1 + pct/100.
//
// Products above 1 are clamped by default. [WithBounds] with [BoundsReject]
// returns an INVALID_RISK_BOUNDS error instead.
//
// # Rounding
//
// Expected counts are rounded half away from zero (37.5 → 38, 36.49 → 36).
// The same policy is used by the phrasing package so sentences and charts
// always agree.
//
// # Usage
//
//	m, err := risk.NewMeasure(risk.OddsRatio, 5.21)
//	f, err := risk.Convert(0.102, m, 100)
//	fmt.Println(f.BaselineCount, f.ExposedCount) // 10 37
//
// All functions are pure and safe for concurrent use.
package risk
