package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/state"
	"github.com/leapstack-labs/leapmodel/internal/tabular"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// Commands run without the root command (as in tests) load it on demand.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		var err error
		if cfg, err = config.LoadConfig("", cmd.Flags()); err != nil {
			return nil, err
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// LoadModel reads the configured model file and indexes it.
func (c *CommandContext) LoadModel() (*tabular.Document, *tabular.Repository, error) {
	if err := c.Cfg.ValidateModelFile(); err != nil {
		return nil, nil, err
	}

	doc, err := tabular.Load(c.Cfg.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("loaded model",
		slog.String("path", c.Cfg.ModelPath),
		slog.Int("tables", len(doc.Model().Tables)))

	return doc, tabular.NewRepository(doc.Model()), nil
}

// OpenStore opens and migrates the run-history database.
func (c *CommandContext) OpenStore() (core.Store, error) {
	if c.Cfg.StatePath != ":memory:" {
		if dir := filepath.Dir(c.Cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// history records one run. A nil history records nothing. Failures are
// logged and never returned.
type history struct {
	store  core.Store
	run    *core.Run
	logger *slog.Logger
}

// startHistory opens the store and creates a running run. It returns nil
// when history is disabled or the store cannot be opened.
func (c *CommandContext) startHistory(kind core.RunKind) *history {
	if c.Cfg.NoHistory {
		return nil
	}

	store, err := c.OpenStore()
	if err != nil {
		c.Logger.Warn("run history disabled", slog.String("error", err.Error()))
		return nil
	}

	run, err := store.CreateRun(kind, c.Cfg.ModelPath)
	if err != nil {
		c.Logger.Warn("failed to record run", slog.String("error", err.Error()))
		_ = store.Close()
		return nil
	}

	return &history{store: store, run: run, logger: c.Logger}
}

// RunID returns the recorded run ID, or "" when nothing is recorded.
func (h *history) RunID() string {
	if h == nil {
		return ""
	}
	return h.run.ID
}

// complete stores the changes and marks the run completed.
func (h *history) complete(summary core.RunSummary, changes []core.Change) {
	if h == nil {
		return
	}
	if err := h.store.RecordChanges(h.run.ID, changes); err != nil {
		h.logger.Warn("failed to record changes", slog.String("error", err.Error()))
	}
	h.finish(core.RunStatusCompleted, summary, "")
}

// fail marks the run failed with err.
func (h *history) fail(summary core.RunSummary, err error) {
	if h == nil {
		return
	}
	h.finish(core.RunStatusFailed, summary, err.Error())
}

func (h *history) finish(status core.RunStatus, summary core.RunSummary, errMsg string) {
	if err := h.store.CompleteRun(h.run.ID, status, summary, errMsg); err != nil {
		h.logger.Warn("failed to complete run", slog.String("error", err.Error()))
	}
}

func (h *history) close() {
	if h == nil {
		return
	}
	_ = h.store.Close()
}

func changeInfos(changes []core.Change) []output.ChangeInfo {
	out := make([]output.ChangeInfo, 0, len(changes))
	for _, c := range changes {
		out = append(out, output.ChangeInfo{
			Action: string(c.Action),
			Object: c.Object,
			Before: c.Before,
			After:  c.After,
			Detail: c.Detail,
		})
	}
	return out
}

// renderChanges prints changes other than skips as a table.
func renderChanges(r *output.Renderer, changes []core.Change) {
	var rows [][]string
	for _, c := range changes {
		if c.Action == core.ChangeSkipped {
			continue
		}
		detail := c.Detail
		if detail == "" && c.After != "" {
			detail = c.After
		}
		rows = append(rows, []string{string(c.Action), c.Object, detail})
	}
	if len(rows) == 0 {
		return
	}
	r.Println("")
	r.Table([]string{"action", "object", "detail"}, rows)
}
