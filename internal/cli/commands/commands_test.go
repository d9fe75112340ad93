package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/check"
	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/cli/testutil"
	"github.com/leapstack-labs/leapmodel/internal/generator"
	"github.com/leapstack-labs/leapmodel/internal/rename"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateCommand_Flags(t *testing.T) {
	cmd := NewGenerateCommand()

	tests := []struct {
		flag string
		key  string
	}{
		{"group", "generate.calculation_group"},
		{"folder-mode", "generate.folder_mode"},
		{"exclude-name", "generate.exclude_name_contains"},
		{"item", "generate.items"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, []string{tt.key}, f.Annotations[config.KeyAnnotation])
		})
	}

	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
	assert.Nil(t, cmd.Flags().Lookup("dry-run").Annotations, "dry-run is not a config key")
}

func TestRenameCommand_Flags(t *testing.T) {
	cmd := NewRenameCommand()

	f := cmd.Flags().Lookup("calculation-items")
	require.NotNil(t, f)
	assert.Equal(t, "true", f.DefValue)
	assert.Equal(t, []string{"rename.calculation_items"}, f.Annotations[config.KeyAnnotation])
	assert.NotNil(t, cmd.Flags().Lookup("pair"))
	assert.NotNil(t, cmd.Flags().Lookup("preview"))
}

func TestResolvePairs(t *testing.T) {
	dir := t.TempDir()
	pairsPath := filepath.Join(dir, "pairs.yaml")
	require.NoError(t, os.WriteFile(pairsPath, []byte("pairs:\n  - from: Rev\n    to: Revenue\n"), 0o600))

	configPairs := []rename.Pair{{From: "Qty", To: "Quantity"}}

	tests := []struct {
		name    string
		args    []string
		cfg     config.RenameConfig
		want    []rename.Pair
		wantErr string
	}{
		{
			name: "flags win",
			args: []string{"A=B", "C=D=E"},
			cfg:  config.RenameConfig{PairsFile: pairsPath, Pairs: configPairs},
			want: []rename.Pair{{From: "A", To: "B"}, {From: "C", To: "D=E"}},
		},
		{
			name: "pairs file before config",
			cfg:  config.RenameConfig{PairsFile: pairsPath, Pairs: configPairs},
			want: []rename.Pair{{From: "Rev", To: "Revenue"}},
		},
		{
			name: "config pairs",
			cfg:  config.RenameConfig{Pairs: configPairs},
			want: configPairs,
		},
		{
			name:    "no source",
			wantErr: "no replacement pairs",
		},
		{
			name:    "invalid flag pair",
			args:    []string{"=B"},
			wantErr: "empty search text",
		},
		{
			name:    "missing pairs file",
			cfg:     config.RenameConfig{PairsFile: filepath.Join(dir, "missing.yaml")},
			wantErr: "failed to read pairs file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePairs(tt.args, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFilter(t *testing.T) {
	visible := &core.Measure{Table: "Sales", Name: "Sales", DisplayFolder: `Base Measures\Revenue`}
	hidden := &core.Measure{Table: "Sales", Name: "Helper", IsHidden: true}

	tests := []struct {
		name    string
		filter  listFilter
		measure *core.Measure
		want    bool
	}{
		{"no filter", listFilter{}, visible, true},
		{"hidden excluded", listFilter{}, hidden, false},
		{"hidden included", listFilter{hidden: true}, hidden, true},
		{"table prefix", listFilter{table: "Sal"}, visible, true},
		{"table mismatch", listFilter{table: "Calendar"}, visible, false},
		{"folder prefix", listFilter{folder: "Base"}, visible, true},
		{"folder mismatch", listFilter{folder: "Time"}, visible, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.match(tt.measure))
		})
	}
}

func sampleGenerateReport() *generator.Report {
	return &generator.Report{
		Candidates: 2,
		Created:    1,
		Skipped:    1,
		Changes: []core.Change{
			{Action: core.ChangeCreated, Object: "Sales/Sales PY", After: "CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= \"PY\" )"},
			{Action: core.ChangeSkipped, Object: "Sales/Cost PY", Detail: "already exists"},
		},
	}
}

func TestRenderGenerateReport(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderGenerateReport(tr.Renderer, "model.bim", "run-1", sampleGenerateReport()))

		var got output.GenerateOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 1, got.Created)
		assert.Equal(t, 1, got.Skipped)
		require.Len(t, got.Changes, 2)
		assert.Equal(t, "skipped", got.Changes[1].Action)
		assert.Contains(t, tr.Output(), `"PY"`, "quotes are not HTML escaped")
	})

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderGenerateReport(tr.Renderer, "model.bim", "", sampleGenerateReport()))

		out := tr.Output()
		assert.Contains(t, out, "# Generate\n")
		assert.Contains(t, out, "- **Created:** 1")
		assert.Contains(t, out, "Sales/Sales PY")
		assert.NotContains(t, out, "Sales/Cost PY", "skips are not listed")
		assert.NotContains(t, out, "**Run:**")
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
	})
}

func TestRenderRenameReport(t *testing.T) {
	t.Run("no-op", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderRenameReport(tr.Renderer, "model.bim", "", &rename.Report{NoOp: true}))
		assert.Contains(t, tr.Output(), "No measure names matched")
		assert.NotContains(t, tr.Output(), "Model saved")
	})

	t.Run("preview", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		report := &rename.Report{
			Approximate:        true,
			Renames:            []rename.Mapping{{Table: "Sales", From: "Sales", To: "Revenue"}},
			ExpressionsUpdated: 3,
		}
		require.NoError(t, renderRenameReport(tr.Renderer, "model.bim", "", report))

		out := tr.Output()
		assert.Contains(t, out, "# Rename (preview)")
		assert.Contains(t, out, "- **Expressions updated:** 3")
		assert.Contains(t, out, "Revenue")
		assert.Contains(t, out, "approximate")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		report := &rename.Report{Renames: []rename.Mapping{{Table: "Sales", From: "Sales", To: "Revenue"}}}
		require.NoError(t, renderRenameReport(tr.Renderer, "model.bim", "run-2", report))

		var got output.RenameOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, []output.RenameMapping{{Table: "Sales", From: "Sales", To: "Revenue"}}, got.Renames)
		assert.Equal(t, "run-2", got.RunID)
		assert.False(t, got.NoOp)
	})
}

func TestRenderDiagnostics(t *testing.T) {
	diags := []check.Diagnostic{
		{RuleID: "MC01", Severity: check.SeverityError, Object: "Calendar/Sales", Message: "duplicate"},
		{RuleID: "MC03", Severity: check.SeverityWarning, Object: "Sales/Empty", Message: "empty"},
	}

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderDiagnostics(tr.Renderer, "model.bim", diags))

		var got output.CheckOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, 1, got.Errors)
		assert.Equal(t, 1, got.Warnings)
		assert.Equal(t, "error", got.Diagnostics[0].Severity)
	})

	t.Run("json empty", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderDiagnostics(tr.Renderer, "model.bim", nil))
		assert.Contains(t, tr.Output(), `"diagnostics": []`)
	})

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderDiagnostics(tr.Renderer, "model.bim", diags))

		out := tr.Output()
		assert.Contains(t, out, "# Model Check")
		assert.Contains(t, out, "Calendar/Sales")
		assert.Contains(t, out, "- **Warnings:** 1")
		testutil.AssertNoANSI(t, out)
	})
}

func TestRenderMeasures_Empty(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	require.NoError(t, renderMeasures(tr.Renderer, "model.bim", nil))

	var got output.ListOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	assert.NotNil(t, got.Measures)
	assert.Zero(t, got.Total)
}

func TestRenderQueryResults(t *testing.T) {
	results := []any{"Sales", map[string]any{"name": "PY", "ordinal": int64(0)}}

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRenderer(output.ModeText, false)
		require.NoError(t, renderQueryResults(tr.Renderer, results))
		assert.Contains(t, tr.Output(), "Sales\n")
		assert.Contains(t, tr.Output(), `"PY"`)
	})

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderQueryResults(tr.Renderer, results))
		assert.Contains(t, tr.Output(), "# Results (2)")
		testutil.AssertValidMarkdown(t, tr.Output())
	})

	t.Run("json no matches", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderQueryResults(tr.Renderer, nil))
		assert.JSONEq(t, "[]", tr.Output())
	})
}

func TestSummaryText(t *testing.T) {
	gen := &core.Run{Kind: core.RunKindGenerate, Summary: core.RunSummary{Created: 4, Skipped: 2}}
	assert.Equal(t, "created 4, updated 0, skipped 2, errors 0", summaryText(gen))

	ren := &core.Run{Kind: core.RunKindRename, Summary: core.RunSummary{Renamed: 1, Updated: 3}}
	assert.Equal(t, "renamed 1, references 3, errors 0", summaryText(ren))
}

func TestRunInfo(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(time.Second)
	run := &core.Run{
		ID:          "abc",
		Kind:        core.RunKindRename,
		Status:      core.RunStatusCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
		Summary:     core.RunSummary{Renamed: 2},
	}

	info := runInfo(run)
	assert.Equal(t, "rename", info.Kind)
	assert.Equal(t, "completed", info.Status)
	assert.Equal(t, 2, info.Renamed)
	assert.Equal(t, &completed, info.CompletedAt)
}

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	tr := testutil.NewTestRendererMarkdown()

	require.NoError(t, runInit(tr.Renderer, dir, "model.bim", false))
	assert.Contains(t, tr.Output(), "Created")

	data, err := os.ReadFile(filepath.Join(dir, "leapmodel.yaml"))
	require.NoError(t, err)

	var got starterConfig
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "model.bim", got.Model)
	assert.Equal(t, config.DefaultStateFile, got.StatePath)
	assert.Equal(t, "Time Intelligence", got.Generate.CalculationGroup)
	assert.True(t, got.Rename.CalculationItems)

	err = runInit(tr.Renderer, dir, "model.bim", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	require.NoError(t, runInit(tr.Renderer, dir, "other.bim", true))
}
