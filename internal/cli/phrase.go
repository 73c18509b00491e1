package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/pipeline"
)

// phraseCommand creates the phrase command, which prints the two
// plain-language sentences.
func (c *CLI) phraseCommand() *cobra.Command {
	var (
		mf measureFlags
		of optionFlags
	)

	cmd := &cobra.Command{
		Use:   "phrase",
		Short: "Describe expected frequencies in plain language",
		Long: `Phrase prints one sentence for the unexposed group and one for the exposed
group. Name the population, event, risk factor, and follow-up period to get
complete sentences; any of them may be left out.`,
		Example: `  expectedfreq phrase -b 0.102 -x 5.21 \
    --population-name "hospitalized men" \
    --risk-factor "go through surgery" \
    --event "acute respiratory disorder" \
    --followup "3 years"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.measure()
			if err != nil {
				return err
			}
			opts := c.config.PipelineOptions()
			if err := mf.apply(cmd, &opts); err != nil {
				return err
			}
			of.apply(cmd, &opts)
			opts.Logger = c.Logger

			text, err := pipeline.PhraseExpectedFrequencies(mf.baseline, m, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text.String())
			return nil
		},
	}

	mf.register(cmd)
	of.register(cmd)
	return cmd
}
