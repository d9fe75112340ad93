package generator

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapmodel/internal/tabular"
	"github.com/leapstack-labs/leapmodel/internal/testutil"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *tabular.Repository {
	return tabular.NewRepository(testutil.TimeIntelligenceModel(), tabular.WithLineageTags(testutil.SequentialTags()))
}

func measureNames(ms []*core.Measure) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.Name)
	}
	return names
}

func TestGenerator_Run_CreatesMeasures(t *testing.T) {
	repo := newRepo()
	gen := New(repo, DefaultOptions(), testutil.NewTestLogger(t))

	report, err := gen.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 6, report.Created)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Errors)

	ytd, ok := repo.FindMeasure("Sales YTD")
	require.True(t, ok)
	assert.Equal(t, "Sales", ytd.Table)
	assert.Equal(t, `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "YTD" )`, ytd.Expression)
	assert.Equal(t, `Time Intelligence\Sales`, ytd.DisplayFolder)
	assert.Equal(t, "#,##0", ytd.FormatString)
	assert.NotEmpty(t, ytd.LineageTag)

	yoy, ok := repo.FindMeasure("Sales YOY %")
	require.True(t, ok)
	assert.Equal(t, "#,##0.00 %;(#,##0.00 %)", yoy.FormatString)

	costPY, ok := repo.FindMeasure("Cost PY")
	require.True(t, ok)
	assert.Equal(t, `Time Intelligence\Costs\Cost`, costPY.DisplayFolder)
	assert.Equal(t, "#,##0.00", costPY.FormatString)
}

func TestGenerator_Run_IsIdempotentWithoutOverwrite(t *testing.T) {
	repo := newRepo()
	opts := DefaultOptions()

	_, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	before := snapshot(repo)

	report, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Created)
	assert.Equal(t, 6, report.Skipped)
	assert.Equal(t, before, snapshot(repo))
}

func TestGenerator_Run_IdempotentWithoutBaseFolder(t *testing.T) {
	repo := newRepo()
	opts := DefaultOptions()
	opts.BaseFolder = ""

	first, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Candidates, "Sales, Cost and Report Title")

	second, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, second.Candidates, "generated measures never become base measures")
	assert.Zero(t, second.Created)
	assert.Equal(t, first.Created, second.Skipped)
}

func TestGenerator_Run_OverwriteUpdatesInPlace(t *testing.T) {
	repo := newRepo()
	opts := DefaultOptions()

	_, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)

	generated, _ := repo.FindMeasure("Sales YTD")
	tag := generated.LineageTag
	generated.Expression = "CALCULATE( OldSales[Sales], 'Time Intelligence'[Time Calculation]= \"YTD\" )"
	generated.FormatString = "0"

	opts.Overwrite = true
	report, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Updated)
	assert.Zero(t, report.Created)

	after, ok := repo.FindMeasure("Sales YTD")
	require.True(t, ok)
	assert.Same(t, generated, after)
	assert.Equal(t, tag, after.LineageTag, "identity is preserved")
	assert.Equal(t, `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "YTD" )`, after.Expression)
	assert.Equal(t, "#,##0", after.FormatString)
}

func TestGenerator_Run_OverwriteRecreate(t *testing.T) {
	repo := newRepo()
	opts := DefaultOptions()

	_, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	original, _ := repo.FindMeasure("Sales PY")
	tag := original.LineageTag

	opts.Overwrite = true
	opts.OverwriteMode = OverwriteRecreate
	report, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Updated)
	assert.Equal(t, core.ChangeRecreated, report.Changes[0].Action)

	recreated, ok := repo.FindMeasure("Sales PY")
	require.True(t, ok)
	assert.NotSame(t, original, recreated)
	assert.NotEqual(t, tag, recreated.LineageTag)
}

func TestGenerator_Run_OverwriteRecreateKeepsMeasureOnConflict(t *testing.T) {
	model := testutil.TimeIntelligenceModel()
	_, err := New(tabular.NewRepository(model), DefaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	params := model.Tables[1]
	require.Equal(t, "Parameter Dates", params.Name)
	params.Measures = append(params.Measures, &core.Measure{Name: "Sales PY", Table: params.Name, Expression: "0", IsHidden: true})
	repo := tabular.NewRepository(model)
	original, ok := repo.FindMeasure("Sales PY")
	require.True(t, ok)

	opts := DefaultOptions()
	opts.Overwrite = true
	opts.OverwriteMode = OverwriteRecreate

	for _, dryRun := range []bool{true, false} {
		opts.DryRun = dryRun
		report, err := New(repo, opts, nil).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Errors, "dry run %v", dryRun)
		assert.Equal(t, 3, report.Updated, "Cost is still recreated")

		kept, ok := repo.FindMeasure("Sales PY")
		require.True(t, ok, "the conflicting measure is not deleted")
		assert.Same(t, original, kept)
	}
}

func TestGenerator_Run_DryRunReportsNameConflicts(t *testing.T) {
	newConflictRepo := func() *tabular.Repository {
		model := testutil.TimeIntelligenceModel()
		sales := model.Tables[0]
		sales.Measures = append(sales.Measures, &core.Measure{Name: "Cost PY", Table: sales.Name, Expression: "0", IsHidden: true})
		return tabular.NewRepository(model)
	}

	opts := DefaultOptions()
	opts.DryRun = true
	dry, err := New(newConflictRepo(), opts, nil).Run(context.Background())
	require.NoError(t, err)

	opts.DryRun = false
	applied, err := New(newConflictRepo(), opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, applied.Errors, dry.Errors)
	assert.Equal(t, applied.Created, dry.Created)
	assert.Equal(t, 1, dry.Errors)
	assert.Equal(t, 3, dry.Created)
	assert.Equal(t, core.ChangeError, dry.Changes[len(dry.Changes)-1].Action)
}

func TestGenerator_Run_IsolatesPerMeasureFailures(t *testing.T) {
	model := testutil.TimeIntelligenceModel()
	sales := model.Tables[0]
	sales.Measures = append(sales.Measures, &core.Measure{Name: "Cost PY", Expression: "0", IsHidden: true})
	repo := tabular.NewRepository(model)
	logger, logs := testutil.NewRecordingLogger()

	report, err := New(repo, DefaultOptions(), logger).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 3, report.Created, "Sales still gets all three items")
	_, ok := repo.FindMeasure("Sales YOY %")
	assert.True(t, ok)
	_, ok = repo.FindMeasure("Cost YTD")
	assert.False(t, ok, "remaining items of the failed measure are not generated")

	errs := logs.Records(slog.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Cost", errs[0].Attrs["measure"])
	assert.Contains(t, errs[0].Attrs["error"], "duplicate name")
}

func TestGenerator_Run_DryRunDoesNotMutate(t *testing.T) {
	repo := newRepo()
	before := snapshot(repo)
	opts := DefaultOptions()
	opts.DryRun = true

	report, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 6, report.Created)
	assert.Equal(t, before, snapshot(repo))
}

func TestGenerator_Run_ItemFilter(t *testing.T) {
	repo := newRepo()
	opts := DefaultOptions()
	opts.Items = []string{"YTD"}

	report, err := New(repo, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	_, ok := repo.FindMeasure("Sales PY")
	assert.False(t, ok)
}

func TestGenerator_Run_CancelledContext(t *testing.T) {
	repo := newRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(repo, DefaultOptions(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Created)
}

func TestGenerator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Model, *Options)
		wantErr error
	}{
		{
			name:    "missing group",
			mutate:  func(_ *core.Model, o *Options) { o.CalculationGroup = "Nope" },
			wantErr: ErrGroupNotFound,
		},
		{
			name:    "regular table",
			mutate:  func(_ *core.Model, o *Options) { o.CalculationGroup = "Sales" },
			wantErr: ErrNotCalculationGroup,
		},
		{
			name:    "no items",
			mutate:  func(m *core.Model, _ *Options) { m.Tables[3].CalculationGroup.Items = nil },
			wantErr: ErrNoCalculationItems,
		},
		{
			name:    "missing column",
			mutate:  func(_ *core.Model, o *Options) { o.CalculationColumn = "Calc" },
			wantErr: ErrColumnNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := testutil.TimeIntelligenceModel()
			opts := DefaultOptions()
			tt.mutate(model, &opts)
			repo := tabular.NewRepository(model)
			before := snapshot(repo)

			report, err := New(repo, opts, nil).Run(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
			assert.Equal(t, before, snapshot(repo), "nothing is mutated")
		})
	}
}

func TestGenerator_SelectBaseMeasures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   []string
	}{
		{
			name:   "defaults",
			mutate: func(*Options) {},
			want:   []string{"Sales", "Cost"},
		},
		{
			name:   "no folder filter still excludes parameter and calendar tables",
			mutate: func(o *Options) { o.BaseFolder = "" },
			want:   []string{"Sales", "Cost", "Report Title"},
		},
		{
			name: "no exclusions",
			mutate: func(o *Options) {
				o.ExcludeTables = nil
				o.ExcludeNameContains = nil
			},
			want: []string{"Sales", "Cost", "Sales Growth", "Selected Date", "Days"},
		},
		{
			name: "include list",
			mutate: func(o *Options) {
				o.ExcludeTables = nil
				o.IncludeTables = []string{"Parameter", "Cal"}
			},
			want: []string{"Selected Date", "Days"},
		},
		{
			name: "exclude wins over include",
			mutate: func(o *Options) {
				o.IncludeTables = []string{"Parameter"}
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			got := New(newRepo(), opts, nil).SelectBaseMeasures()
			assert.Equal(t, tt.want, measureNames(got))
		})
	}
}

type measureState struct {
	Table, Expression, Folder, Format, Tag string
	Hidden                                 bool
}

func snapshot(repo core.Repository) map[string]measureState {
	out := make(map[string]measureState)
	for _, m := range repo.Measures() {
		out[m.QualifiedName()] = measureState{m.Table, m.Expression, m.DisplayFolder, m.FormatString, m.LineageTag, m.IsHidden}
	}
	return out
}
