package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded generate and rename runs",
		Long: `Show the runs recorded in the state database. With a run ID, show the
object-level changes of that run.`,
		Example: `  # Most recent runs
  leapmodel history

  # Changes of one run, as JSON
  leapmodel history 3f1c9a2e-... -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryDetail(cmd, args[0])
			}
			return runHistoryList(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	if _, err := os.Stat(cmdCtx.Cfg.StatePath); os.IsNotExist(err) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON([]output.RunInfo{})
		}
		r.Println("No runs recorded")
		return nil
	}

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]output.RunInfo, 0, len(runs))
		for _, run := range runs {
			infos = append(infos, runInfo(run))
		}
		return r.JSON(infos)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded")
		return nil
	}

	r.Header(1, "Run History")
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			string(run.Kind),
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			summaryText(run),
		})
	}
	r.Table([]string{"id", "kind", "status", "started", "summary"}, rows)
	return nil
}

func runHistoryDetail(cmd *cobra.Command, id string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	changes, err := store.GetChanges(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		info := runInfo(run)
		info.Changes = changeInfos(changes)
		return r.JSON(info)
	}

	r.Header(1, "Run "+run.ID)
	r.StatusLine("Kind", run.Kind)
	r.StatusLine("Model", run.ModelPath)
	r.StatusLine("Status", run.Status)
	r.StatusLine("Started", run.StartedAt.Local().Format(time.DateTime))
	if run.CompletedAt != nil {
		r.StatusLine("Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	r.StatusLine("Summary", summaryText(run))
	if run.Error != "" {
		r.StatusLine("Error", run.Error)
	}

	if len(changes) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{string(c.Action), c.Object, c.Before, c.After, c.Detail})
	}
	r.Println("")
	r.Table([]string{"action", "object", "before", "after", "detail"}, rows)
	return nil
}

func runInfo(run *core.Run) output.RunInfo {
	return output.RunInfo{
		ID:          run.ID,
		Kind:        string(run.Kind),
		ModelPath:   run.ModelPath,
		Status:      string(run.Status),
		Created:     run.Summary.Created,
		Updated:     run.Summary.Updated,
		Skipped:     run.Summary.Skipped,
		Renamed:     run.Summary.Renamed,
		Errors:      run.Summary.Errors,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

func summaryText(run *core.Run) string {
	s := run.Summary
	if run.Kind == core.RunKindRename {
		return fmt.Sprintf("renamed %d, references %d, errors %d", s.Renamed, s.Updated, s.Errors)
	}
	return fmt.Sprintf("created %d, updated %d, skipped %d, errors %d", s.Created, s.Updated, s.Skipped, s.Errors)
}
