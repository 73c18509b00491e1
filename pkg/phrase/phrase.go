// Package phrase turns expected frequencies into plain-language sentences.
//
// Each result is phrased twice, once for the unexposed group and once for
// the exposed group:
//
//	Out of 100 hospitalized men who did not go through surgery, we should
//	expect 10 of them to also have acute respiratory disorder over 3 years.
//
// Counts are rounded half away from zero with the same policy as package
// risk, so a sentence never disagrees with the icon array next to it.
package phrase

import (
	"fmt"
	"strings"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// Description names the parts of a sentence. All fields are optional.
type Description struct {
	PopulationName   string `json:"population_name,omitempty" toml:"population_name" yaml:"population_name"`
	EventName        string `json:"event_name,omitempty" toml:"event_name" yaml:"event_name"`
	RiskFactorName   string `json:"risk_factor_name,omitempty" toml:"risk_factor_name" yaml:"risk_factor_name"`
	FollowupDuration string `json:"followup_duration,omitempty" toml:"followup_duration" yaml:"followup_duration"`
}

// Validate checks every label for length and control characters.
func (d Description) Validate() error {
	labels := []struct{ field, value string }{
		{"population name", d.PopulationName},
		{"event name", d.EventName},
		{"risk factor name", d.RiskFactorName},
		{"followup duration", d.FollowupDuration},
	}
	for _, l := range labels {
		if err := errors.ValidateLabel(l.field, l.value); err != nil {
			return err
		}
	}
	return nil
}

// Text is the pair of sentences for one result.
type Text struct {
	Baseline string `json:"baseline"`
	Exposed  string `json:"exposed"`
}

// String joins both sentences, each terminated by a newline.
func (t Text) String() string {
	return t.Baseline + "\n" + t.Exposed + "\n"
}

// Lines breaks the text after every comma and sentence, for use as a
// multi-line chart title.
func (t Text) Lines() []string {
	var lines []string
	for _, sentence := range []string{t.Baseline, t.Exposed} {
		for _, part := range strings.SplitAfter(sentence, ",") {
			if part = strings.TrimSpace(part); part != "" {
				lines = append(lines, part)
			}
		}
	}
	return lines
}

// Phrase builds the sentences for f. Precision is the number of decimals
// shown for the expected frequencies; negative values are treated as 0.
func Phrase(f risk.Frequencies, d Description, precision int) Text {
	if precision < 0 {
		precision = 0
	}
	return Text{
		Baseline: sentence(f.Population, f.Baseline, false, d, precision),
		Exposed:  sentence(f.Population, f.Exposed, true, d, precision),
	}
}

func sentence(population int, ef float64, exposed bool, d Description, precision int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Out of %d %s who did ", population, d.PopulationName)
	if !exposed {
		b.WriteString("not ")
	}
	fmt.Fprintf(&b, "%s, we should expect %.*f of them to also have %s",
		d.RiskFactorName, precision, risk.Round(ef, precision), d.EventName)
	if d.FollowupDuration != "" {
		fmt.Fprintf(&b, " over %s", d.FollowupDuration)
	}
	b.WriteByte('.')
	return b.String()
}
