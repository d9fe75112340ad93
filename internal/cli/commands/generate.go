package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/generator"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one measure per base measure and calculation item",
		Long: `Generate measures that apply every calculation item of a calculation group
to every selected base measure.

For a base measure [Sales] and an item "PY" the generated measure is
"Sales PY" with the expression

  CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "PY" )

Existing generated measures are skipped unless --overwrite is set.
Flags override the generate section of leapmodel.yaml.`,
		Example: `  # Generate time-intelligence measures with the configured defaults
  leapmodel generate

  # Show what would change without saving the model
  leapmodel generate --dry-run

  # Refresh existing measures, grouped by calculation item
  leapmodel generate --overwrite --folder-mode item

  # Only PY and YTD, only tables starting with "Sales"
  leapmodel generate --item PY --item YTD --include-table Sales`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, dryRun)
		},
	}

	f := cmd.Flags()
	f.String("group", "", "Calculation group table name")
	f.String("column", "", "Identifying column of the calculation group")
	f.String("base-folder", "", "Display folder prefix of base measures (empty: all folders)")
	f.String("target-folder", "", "Display folder that replaces the base folder")
	f.String("folder-mode", "", "Folder layout of generated measures (measure|item)")
	f.Bool("overwrite", false, "Refresh measures that already exist")
	f.String("overwrite-mode", "", "How to refresh existing measures (update|recreate)")
	f.StringSlice("include-table", nil, "Only tables starting with this prefix (repeatable)")
	f.StringSlice("exclude-table", nil, "Skip tables starting with this prefix (repeatable)")
	f.StringSlice("exclude-name", nil, "Skip measures whose name contains this text (repeatable)")
	f.StringSlice("item", nil, "Only this calculation item (repeatable)")
	f.Bool("escape-item-quotes", false, "Double quotes inside item names in generated expressions")
	f.BoolVar(&dryRun, "dry-run", false, "Report changes without saving the model")

	for name, key := range map[string]string{
		"group":              "generate.calculation_group",
		"column":             "generate.calculation_column",
		"base-folder":        "generate.base_folder",
		"target-folder":      "generate.target_folder",
		"folder-mode":        "generate.folder_mode",
		"overwrite":          "generate.overwrite",
		"overwrite-mode":     "generate.overwrite_mode",
		"include-table":      "generate.include_tables",
		"exclude-table":      "generate.exclude_tables",
		"exclude-name":       "generate.exclude_name_contains",
		"item":               "generate.items",
		"escape-item-quotes": "generate.escape_item_quotes",
	} {
		config.BindFlag(f, name, key)
	}

	_ = cmd.RegisterFlagCompletionFunc("folder-mode", fixedCompletion("measure", "item"))
	_ = cmd.RegisterFlagCompletionFunc("overwrite-mode", fixedCompletion("update", "recreate"))

	return cmd
}

func runGenerate(cmd *cobra.Command, dryRun bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	doc, repo, err := cmdCtx.LoadModel()
	if err != nil {
		return err
	}

	opts := cmdCtx.Cfg.Generate.Options()
	opts.DryRun = dryRun

	var hist *history
	if !dryRun {
		hist = cmdCtx.startHistory(core.RunKindGenerate)
		defer hist.close()
	}

	report, err := generator.New(repo, opts, cmdCtx.Logger).Run(cmd.Context())
	if err != nil {
		var summary core.RunSummary
		if report != nil {
			summary = report.Summary()
		}
		hist.fail(summary, err)
		return fmt.Errorf("generate failed: %w", err)
	}

	if !dryRun {
		if err := doc.Save(cmdCtx.Cfg.ModelPath); err != nil {
			hist.fail(report.Summary(), err)
			return err
		}
		cmdCtx.Logger.Debug("saved model", slog.String("path", cmdCtx.Cfg.ModelPath))
	}
	hist.complete(report.Summary(), report.Changes)

	return renderGenerateReport(cmdCtx.Renderer, cmdCtx.Cfg.ModelPath, hist.RunID(), report)
}

func renderGenerateReport(r *output.Renderer, modelPath, runID string, report *generator.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.GenerateOutput{
			Model:      modelPath,
			RunID:      runID,
			DryRun:     report.DryRun,
			Candidates: report.Candidates,
			Created:    report.Created,
			Updated:    report.Updated,
			Skipped:    report.Skipped,
			Errors:     report.Errors,
			Changes:    changeInfos(report.Changes),
		})
	}

	title := "Generate"
	if report.DryRun {
		title = "Generate (dry run)"
	}
	r.Header(1, title)
	r.StatusLine("Base measures", report.Candidates)
	r.StatusLine("Created", report.Created)
	r.StatusLine("Updated", report.Updated)
	r.StatusLine("Skipped", report.Skipped)
	r.StatusLine("Errors", report.Errors)
	if runID != "" {
		r.StatusLine("Run", runID)
	}

	renderChanges(r, report.Changes)

	r.Println("")
	switch {
	case report.Errors > 0:
		r.Warning(fmt.Sprintf("%d base measures failed; see the log for details", report.Errors))
	case report.DryRun:
		r.Success("Dry run finished, model not saved")
	default:
		r.Success("Model saved")
	}
	return nil
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
