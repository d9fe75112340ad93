package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

type listFilter struct {
	table  string
	folder string
	hidden bool
}

func (f listFilter) match(m *core.Measure) bool {
	if m.IsHidden && !f.hidden {
		return false
	}
	if f.table != "" && !strings.HasPrefix(m.Table, f.table) {
		return false
	}
	return f.folder == "" || strings.HasPrefix(m.DisplayFolder, f.folder)
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var filter listFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the measures of the model",
		Long: `List measures with their table, display folder and format string.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all visible measures
  leapmodel list

  # Measures of tables starting with "Sales", as JSON
  leapmodel list --table Sales -o json

  # Generated time-intelligence measures, hidden ones included
  leapmodel list --folder "Time Intelligence" --hidden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, filter)
		},
	}

	cmd.Flags().StringVar(&filter.table, "table", "", "Only tables starting with this prefix")
	cmd.Flags().StringVar(&filter.folder, "folder", "", "Only display folders starting with this prefix")
	cmd.Flags().BoolVar(&filter.hidden, "hidden", false, "Include hidden measures")

	return cmd
}

func runList(cmd *cobra.Command, filter listFilter) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	_, repo, err := cmdCtx.LoadModel()
	if err != nil {
		return err
	}

	var measures []*core.Measure
	for _, m := range repo.Measures() {
		if filter.match(m) {
			measures = append(measures, m)
		}
	}

	return renderMeasures(cmdCtx.Renderer, cmdCtx.Cfg.ModelPath, measures)
}

func renderMeasures(r *output.Renderer, modelPath string, measures []*core.Measure) error {
	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]output.MeasureInfo, 0, len(measures))
		for _, m := range measures {
			infos = append(infos, output.MeasureInfo{
				Table:         m.Table,
				Name:          m.Name,
				Expression:    m.Expression,
				DisplayFolder: m.DisplayFolder,
				FormatString:  m.FormatString,
				IsHidden:      m.IsHidden,
				LineageTag:    m.LineageTag,
			})
		}
		return r.JSON(output.ListOutput{Model: modelPath, Measures: infos, Total: len(infos)})
	}

	r.Header(1, fmt.Sprintf("Measures (%d total)", len(measures)))
	if len(measures) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(measures))
	for _, m := range measures {
		hidden := ""
		if m.IsHidden {
			hidden = "yes"
		}
		rows = append(rows, []string{m.Table, m.Name, m.DisplayFolder, m.FormatString, hidden})
	}
	r.Table([]string{"table", "measure", "display_folder", "format_string", "hidden"}, rows)
	return nil
}
