package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapmodel/internal/check"
	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the model for common problems",
		Long: `Run model health rules and report diagnostics.

Rules:
  MC01  duplicate-measure-name           two visible measures share a name (error)
  MC02  unresolved-reference             [Name] matches no measure or column (warning)
  MC03  empty-expression                 measure without an expression (warning)
  MC04  calculation-group-without-items  calculation group without items (warning)

The command exits with a non-zero status when any error is reported.`,
		Example: `  # Check the configured model
  leapmodel check

  # Skip the reference rule
  leapmodel check --disable MC02`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	cmd.Flags().StringSlice("disable", nil, "Rule ID to skip (repeatable)")
	config.BindFlag(cmd.Flags(), "disable", "check.disabled")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	_, repo, err := cmdCtx.LoadModel()
	if err != nil {
		return err
	}

	diags := check.Run(repo, cmdCtx.Cfg.Check.Disabled...)
	if err := renderDiagnostics(cmdCtx.Renderer, cmdCtx.Cfg.ModelPath, diags); err != nil {
		return err
	}

	if check.HasErrors(diags) {
		return errors.New("model check failed")
	}
	return nil
}

func countSeverities(diags []check.Diagnostic) (errs, warns int) {
	for _, d := range diags {
		switch d.Severity {
		case check.SeverityError:
			errs++
		case check.SeverityWarning:
			warns++
		}
	}
	return errs, warns
}

func renderDiagnostics(r *output.Renderer, modelPath string, diags []check.Diagnostic) error {
	errs, warns := countSeverities(diags)

	if r.EffectiveMode() == output.ModeJSON {
		out := output.CheckOutput{Model: modelPath, Diagnostics: []output.Diagnostic{}, Errors: errs, Warnings: warns}
		for _, d := range diags {
			out.Diagnostics = append(out.Diagnostics, output.Diagnostic{
				RuleID:   d.RuleID,
				Severity: d.Severity.String(),
				Object:   d.Object,
				Message:  d.Message,
			})
		}
		return r.JSON(out)
	}

	if len(diags) == 0 {
		r.Success("No issues found")
		return nil
	}

	r.Header(1, "Model Check")
	rows := make([][]string, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, []string{severityLabel(r, d.Severity), d.RuleID, d.Object, d.Message})
	}
	r.Table([]string{"severity", "rule", "object", "message"}, rows)
	r.Println("")
	r.StatusLine("Errors", errs)
	r.StatusLine("Warnings", warns)
	return nil
}

func severityLabel(r *output.Renderer, sev check.Severity) string {
	if r.EffectiveMode() == output.ModeMarkdown {
		return sev.String()
	}
	switch sev {
	case check.SeverityError:
		return r.Styles().Error.Render(sev.String())
	case check.SeverityWarning:
		return r.Styles().Warning.Render(sev.String())
	default:
		return r.Styles().Info.Render(sev.String())
	}
}
