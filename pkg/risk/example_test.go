package risk_test

import (
	"fmt"

	"github.com/matzehuels/expectedfreq/pkg/risk"
)

func ExampleConvert() {
	m, _ := risk.NewMeasure(risk.OddsRatio, 5.21)
	f, err := risk.Convert(0.102, m, 100)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("without: %d, with: %d (exposed risk %.3f)\n", f.BaselineCount, f.ExposedCount, f.ExposedRisk)
	// Output:
	// without: 10, with: 37 (exposed risk 0.372)
}

func ExampleParseMeasure() {
	m, err := risk.ParseMeasure("Percent Change", -25)
	if err != nil {
		fmt.Println(err)
		return
	}
	exposed, _ := risk.ExposedRisk(0.2, m)
	fmt.Printf("%s %.2f\n", m.Kind, exposed)
	// Output:
	// percentage_change 0.15
}

func ExampleExposedRisk_reject() {
	m, _ := risk.NewMeasure(risk.RiskRatio, 3)
	_, err := risk.ExposedRisk(0.5, m, risk.WithBounds(risk.BoundsReject))
	fmt.Println(err)
	// Output:
	// INVALID_RISK_BOUNDS: exposed risk 1.5 exceeds 1 (baseline 0.5 × ratio 3)
}
