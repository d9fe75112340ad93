package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Evaluate a JSONPath expression against the model file",
		Long: `Evaluate a JSONPath expression against the raw model document and print
every match. Unknown properties (annotations, partitions, perspectives) are
visible to queries even though leapmodel does not model them.`,
		Example: `  # Names of all tables
  leapmodel query '$.model.tables[*].name'

  # Measures in a display folder
  leapmodel query '$.model.tables[*].measures[?(@.displayFolder == "Base Measures")].name'

  # Calculation items of every calculation group, as JSON
  leapmodel query '$..calculationGroup.calculationItems[*]' -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0])
		},
	}
	return cmd
}

func runQuery(cmd *cobra.Command, selector string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	x, err := jp.ParseString(selector)
	if err != nil {
		return fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	doc, _, err := cmdCtx.LoadModel()
	if err != nil {
		return err
	}
	root, err := doc.Raw()
	if err != nil {
		return err
	}

	return renderQueryResults(cmdCtx.Renderer, x.Get(root))
}

var queryJSONOptions = ojg.Options{Indent: 2, Sort: true, HTMLUnsafe: true}

func renderQueryResults(r *output.Renderer, results []any) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if results == nil {
			results = []any{}
		}
		return r.JSON(results)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Results (%d)", len(results))))
		for _, v := range results {
			r.Println("")
			r.Println(output.FormatCodeBlock("json", oj.JSON(v, &queryJSONOptions)))
		}
		return nil
	default:
		for _, v := range results {
			if s, ok := v.(string); ok {
				r.Println(s)
				continue
			}
			r.Println(oj.JSON(v, &queryJSONOptions))
		}
		if len(results) == 0 {
			r.Println(r.Muted("(no matches)"))
		}
		return nil
	}
}
