package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/rename"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// NewRenameCommand creates the rename command.
func NewRenameCommand() *cobra.Command {
	var (
		pairArgs []string
		preview  bool
	)

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename measures by find-and-replace and update references",
		Long: `Rename every measure whose name contains a search text, then rewrite
references to the renamed measures in measure expressions and, optionally,
in calculation item expressions and format-string expressions.

Pairs are applied in order; each sees the result of the previous one.
Only the [Name] and "Name" reference forms are rewritten.

Pairs come from --pair, then --pairs-file, then the rename section of
leapmodel.yaml; the first source that provides any pairs wins.`,
		Example: `  # Rename "Sales" to "Revenue" in every measure name
  leapmodel rename --pair Sales=Revenue

  # Preview a batch of renames from a file
  leapmodel rename --pairs-file renames.yaml --preview

  # Leave calculation items untouched
  leapmodel rename --pair Rev=Revenue --calculation-items=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRename(cmd, pairArgs, preview)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&pairArgs, "pair", nil, "Replacement pair From=To (repeatable)")
	f.String("pairs-file", "", "YAML file with a pairs list")
	f.StringSlice("include-table", nil, "Only rename measures of tables starting with this prefix (repeatable)")
	f.Bool("include-hidden", false, "Also rename hidden measures")
	f.Bool("calculation-items", true, "Update calculation item expressions and format strings")
	f.BoolVar(&preview, "preview", false, "Report projected changes without saving the model")

	config.BindFlag(f, "pairs-file", "rename.pairs_file")
	config.BindFlag(f, "include-table", "rename.include_tables")
	config.BindFlag(f, "include-hidden", "rename.include_hidden")
	config.BindFlag(f, "calculation-items", "rename.calculation_items")

	return cmd
}

// resolvePairs picks the pairs of the first source that provides any.
func resolvePairs(pairArgs []string, cfg config.RenameConfig) ([]rename.Pair, error) {
	if len(pairArgs) > 0 {
		pairs := make([]rename.Pair, 0, len(pairArgs))
		for _, arg := range pairArgs {
			p, err := rename.ParsePair(arg)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
		return pairs, nil
	}
	if cfg.PairsFile != "" {
		return rename.LoadPairsFile(cfg.PairsFile)
	}
	if len(cfg.Pairs) > 0 {
		return cfg.Pairs, nil
	}
	return nil, errors.New("no replacement pairs: use --pair From=To, --pairs-file or rename.pairs in leapmodel.yaml")
}

func runRename(cmd *cobra.Command, pairArgs []string, preview bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	pairs, err := resolvePairs(pairArgs, cmdCtx.Cfg.Rename)
	if err != nil {
		return err
	}

	doc, repo, err := cmdCtx.LoadModel()
	if err != nil {
		return err
	}

	opts := cmdCtx.Cfg.Rename.Options()
	opts.Pairs = pairs
	opts.Preview = preview

	var hist *history
	if !preview {
		hist = cmdCtx.startHistory(core.RunKindRename)
		defer hist.close()
	}

	report, err := rename.New(repo, opts, cmdCtx.Logger).Run(cmd.Context())
	if err != nil {
		var summary core.RunSummary
		if report != nil {
			summary = report.Summary()
		}
		hist.fail(summary, err)
		return fmt.Errorf("rename failed: %w", err)
	}

	if !preview && !report.NoOp {
		if err := doc.Save(cmdCtx.Cfg.ModelPath); err != nil {
			hist.fail(report.Summary(), err)
			return err
		}
	}
	hist.complete(report.Summary(), report.Changes)

	return renderRenameReport(cmdCtx.Renderer, cmdCtx.Cfg.ModelPath, hist.RunID(), report)
}

func renderRenameReport(r *output.Renderer, modelPath, runID string, report *rename.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		renames := make([]output.RenameMapping, 0, len(report.Renames))
		for _, m := range report.Renames {
			renames = append(renames, output.RenameMapping{Table: m.Table, From: m.From, To: m.To})
		}
		return r.JSON(output.RenameOutput{
			Model:                    modelPath,
			RunID:                    runID,
			Preview:                  report.Approximate,
			Approximate:              report.Approximate,
			NoOp:                     report.NoOp,
			Renames:                  renames,
			ExpressionsUpdated:       report.ExpressionsUpdated,
			ItemExpressionsUpdated:   report.ItemExpressionsUpdated,
			ItemFormatStringsUpdated: report.ItemFormatStringsUpdated,
			Errors:                   report.Errors,
			Changes:                  changeInfos(report.Changes),
		})
	}

	title := "Rename"
	if report.Approximate {
		title = "Rename (preview)"
	}
	r.Header(1, title)

	if report.NoOp {
		r.Warning("No measure names matched the replacement pairs; nothing changed")
		return nil
	}

	r.StatusLine("Measures renamed", len(report.Renames))
	r.StatusLine("Expressions updated", report.ExpressionsUpdated)
	r.StatusLine("Item expressions updated", report.ItemExpressionsUpdated)
	r.StatusLine("Item format strings", report.ItemFormatStringsUpdated)
	r.StatusLine("Errors", report.Errors)
	if runID != "" {
		r.StatusLine("Run", runID)
	}

	rows := make([][]string, 0, len(report.Renames))
	for _, m := range report.Renames {
		rows = append(rows, []string{m.Table, m.From, m.To})
	}
	r.Println("")
	r.Table([]string{"table", "from", "to"}, rows)

	r.Println("")
	switch {
	case report.Approximate:
		r.Success("Preview finished, counts are approximate and the model was not saved")
	case report.Errors > 0:
		r.Warning(fmt.Sprintf("%d renames failed; see the log for details", report.Errors))
	case report.ReferencesUpdated() == 0:
		r.Warning("Model saved, but no expressions referenced the renamed measures")
	default:
		r.Success("Model saved")
	}
	return nil
}
