package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/render/isotype/sink"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// exploreCommand creates the explore command, an interactive view that
// recomputes the icon grid while the baseline and measure are adjusted.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		baseline float64
		kind     string
		value    float64
		of       optionFlags
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Adjust baseline risk and measure interactively",
		Long: `Explore opens a terminal view of the icon grid. Select a field with ↑/↓,
change it with ←/→ (hold shift for fine steps), and cycle the measure kind
with m. The grid, counts, and sentences update as you go.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := risk.ParseMeasure(kind, value)
			if err != nil {
				return err
			}
			if err := risk.ValidateBaseline(baseline); err != nil {
				return err
			}
			opts := c.config.PipelineOptions()
			of.apply(cmd, &opts)
			if opts.PopulationSize > maxExplorePopulation {
				return errors.New(errors.ErrCodeInvalidInput,
					"explore shows at most %d icons, got %d", maxExplorePopulation, opts.PopulationSize)
			}

			p := tea.NewProgram(newExploreModel(baseline, m, opts), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().Float64VarP(&baseline, "baseline", "b", 0.1, "initial baseline risk")
	cmd.Flags().StringVarP(&kind, "measure", "m", "odds_ratio", "initial measure kind")
	cmd.Flags().Float64VarP(&value, "value", "x", 2, "initial measure value")
	of.register(cmd)

	return cmd
}

// maxExplorePopulation keeps the grid within a typical terminal.
const maxExplorePopulation = 400

// exploreField is the value the arrow keys change.
type exploreField int

const (
	fieldBaseline exploreField = iota
	fieldValue
	fieldCount
)

// kindCycle is the order in which m steps through measure kinds.
var kindCycle = []risk.Kind{risk.OddsRatio, risk.RiskRatio, risk.HazardRatio, risk.PercentChange}

// Step sizes; fine steps are a tenth.
const (
	baselineStep = 0.01
	ratioStep    = 0.1
	percentStep  = 5.0
)

var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	exploreErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// exploreModel is the bubbletea model behind explore.
type exploreModel struct {
	Baseline float64
	Measure  risk.Measure
	Field    exploreField

	opts pipeline.Options
	res  *pipeline.Result
	err  error
}

func newExploreModel(baseline float64, m risk.Measure, opts pipeline.Options) exploreModel {
	em := exploreModel{Baseline: baseline, Measure: m, opts: opts}
	em.recompute()
	return em
}

func (m *exploreModel) recompute() {
	m.res, m.err = pipeline.ExpectedFrequencies(m.Baseline, m.Measure, m.opts)
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.Field = (m.Field + fieldCount - 1) % fieldCount
	case "down", "j", "tab":
		m.Field = (m.Field + 1) % fieldCount
	case "right", "l":
		m.adjust(1)
	case "left", "h":
		m.adjust(-1)
	case "shift+right", "L":
		m.adjust(0.1)
	case "shift+left", "H":
		m.adjust(-0.1)
	case "m":
		m.Measure = nextKind(m.Measure)
	default:
		return m, nil
	}
	m.recompute()
	return m, nil
}

// adjust moves the selected field by dir steps, keeping it in range.
func (m *exploreModel) adjust(dir float64) {
	switch m.Field {
	case fieldBaseline:
		v := risk.Round(m.Baseline+dir*baselineStep, 4)
		m.Baseline = math.Min(math.Max(v, 0.001), 0.999)
	case fieldValue:
		if m.Measure.Kind == risk.PercentChange {
			v := risk.Round(m.Measure.Value+dir*percentStep, 2)
			m.Measure.Value = math.Max(v, -99)
			return
		}
		v := risk.Round(m.Measure.Value+dir*ratioStep, 3)
		m.Measure.Value = math.Max(v, 0.01)
	}
}

// nextKind switches to the next measure kind, translating the value so the
// implied effect stays roughly the same.
func nextKind(m risk.Measure) risk.Measure {
	i := 0
	for j, k := range kindCycle {
		if k == m.Kind {
			i = j
		}
	}
	next := kindCycle[(i+1)%len(kindCycle)]

	switch {
	case next == risk.PercentChange:
		return risk.Measure{Kind: next, Value: risk.Round((m.Value-1)*100, 2)}
	case m.Kind == risk.PercentChange:
		return risk.Measure{Kind: next, Value: risk.Round(1+m.Value/100, 3)}
	}
	return risk.Measure{Kind: next, Value: m.Value}
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Expected frequencies"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ select  ←/→ adjust  m measure  q quit"))
	b.WriteString("\n\n")

	fields := []struct {
		label, value string
	}{
		{"baseline", strconv.FormatFloat(m.Baseline, 'f', -1, 64)},
		{m.Measure.Kind.String(), strconv.FormatFloat(m.Measure.Value, 'f', -1, 64)},
	}
	for i, f := range fields {
		cursor, style := "  ", exploreNormalStyle
		if exploreField(i) == m.Field {
			cursor, style = "▸ ", exploreSelectedStyle
		}
		b.WriteString(cursor + style.Render(fmt.Sprintf("%-18s %s", f.label, f.value)) + "\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(exploreErrorStyle.Render(errors.UserMessage(m.err)))
		b.WriteString("\n")
		return b.String()
	}

	f := m.res.Frequencies
	b.WriteString(fmt.Sprintf("%s → %s out of %d  %s\n\n",
		StyleNumber.Render(strconv.Itoa(f.BaselineCount)),
		styleExposed.Render(strconv.Itoa(f.ExposedCount)),
		f.Population,
		StyleDim.Render(differenceLine(f))))
	b.WriteString(sink.RenderTerminal(m.res.Placements, m.res.Plot.Palette))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.res.Text.String()))
	return b.String()
}
