// Package generator derives time-intelligence measures from base measures
// and the calculation items of a calculation group.
//
// For every selected base measure and every calculation item the generator
// upserts a measure named "<base> <item>" whose expression evaluates the base
// measure filtered to that item. Existing measures are matched by name only,
// so reruns are idempotent.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/dax"
)

// Precondition errors. Any of them aborts the run before the model is touched.
var (
	ErrGroupNotFound       = errors.New("calculation group not found")
	ErrNotCalculationGroup = errors.New("table is not a calculation group")
	ErrNoCalculationItems  = errors.New("calculation group has no calculation items")
	ErrColumnNotFound      = errors.New("calculation group column not found")
)

// Generator runs the measure generation against a repository.
type Generator struct {
	repo   core.Repository
	opts   Options
	logger *slog.Logger
}

// New creates a generator. A nil logger discards output.
func New(repo core.Repository, opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.applyDefaults()
	return &Generator{repo: repo, opts: opts, logger: logger}
}

// Report summarizes a generator run.
type Report struct {
	Candidates int
	Created    int
	Updated    int
	Skipped    int
	Errors     int
	DryRun     bool
	Changes    []core.Change
}

// Summary converts the report into run-history counts.
func (r *Report) Summary() core.RunSummary {
	return core.RunSummary{
		Created: r.Created,
		Updated: r.Updated,
		Skipped: r.Skipped,
		Errors:  r.Errors,
	}
}

// Validate checks the calculation group preconditions and returns the group table.
func (g *Generator) Validate() (*core.Table, error) {
	name := g.opts.CalculationGroup
	table, ok := g.repo.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	}
	if !table.IsCalculationGroup() {
		return nil, fmt.Errorf("%w: %q", ErrNotCalculationGroup, name)
	}
	if len(table.CalculationGroup.Items) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoCalculationItems, name)
	}
	if _, ok := table.Column(g.opts.CalculationColumn); !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrColumnNotFound, g.opts.CalculationColumn, name)
	}
	return table, nil
}

// SelectBaseMeasures returns the measures eligible as base measures, in
// repository order.
func (g *Generator) SelectBaseMeasures() []*core.Measure {
	o := g.opts
	skipGenerated := o.TargetFolder != "" && (o.BaseFolder == "" || !strings.HasPrefix(o.BaseFolder, o.TargetFolder))

	var out []*core.Measure
	for _, m := range g.repo.Measures() {
		if m.IsHidden {
			continue
		}
		if o.BaseFolder != "" && !strings.HasPrefix(m.DisplayFolder, o.BaseFolder) {
			continue
		}
		if len(o.IncludeTables) > 0 && !hasAnyPrefix(m.Table, o.IncludeTables) {
			continue
		}
		if hasAnyPrefix(m.Table, o.ExcludeTables) {
			continue
		}
		if dax.ContainsAny(m.Name, o.ExcludeNameContains) {
			continue
		}
		if skipGenerated && strings.HasPrefix(m.DisplayFolder, o.TargetFolder) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Run validates the preconditions, then upserts one measure per base measure
// and calculation item. A failure on one base measure is recorded and the
// run moves on to the next.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	group, err := g.Validate()
	if err != nil {
		g.logger.Error("calculation group validation failed", slog.String("error", err.Error()))
		return nil, err
	}

	items := g.items(group)
	bases := g.SelectBaseMeasures()
	report := &Report{Candidates: len(bases), DryRun: g.opts.DryRun}

	g.logger.Info("generating measures",
		slog.String("calculation_group", group.Name),
		slog.Int("items", len(items)),
		slog.Int("base_measures", len(bases)),
		slog.Bool("overwrite", g.opts.Overwrite),
		slog.Bool("dry_run", g.opts.DryRun))

	for _, base := range bases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := g.generateFor(base, items, report); err != nil {
			report.Errors++
			report.Changes = append(report.Changes, core.Change{
				Action: core.ChangeError,
				Object: base.QualifiedName(),
				Detail: err.Error(),
			})
			g.logger.Error("failed to generate measures",
				slog.String("measure", base.Name),
				slog.String("error", err.Error()))
		}
	}

	g.logger.Info("measure generation finished",
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors))
	return report, nil
}

func (g *Generator) items(group *core.Table) []*core.CalculationItem {
	all := group.CalculationGroup.Items
	if len(g.opts.Items) == 0 {
		return all
	}
	var out []*core.CalculationItem
	for _, item := range all {
		if slices.Contains(g.opts.Items, item.Name) {
			out = append(out, item)
		}
	}
	return out
}

func (g *Generator) generateFor(base *core.Measure, items []*core.CalculationItem, report *Report) error {
	for _, item := range items {
		name := MeasureName(base, item)
		spec := core.MeasureSpec{
			Expression:    Expression(base, item, g.opts),
			DisplayFolder: DisplayFolder(base, item, g.opts),
			FormatString:  FormatString(base, item, g.opts),
		}

		existing, found := g.repo.FindMeasure(name)
		switch {
		case !found:
			if err := g.create(base.Table, name, spec, report); err != nil {
				return fmt.Errorf("create %q: %w", name, err)
			}
		case !g.opts.Overwrite:
			report.Skipped++
			report.Changes = append(report.Changes, core.Change{
				Action: core.ChangeSkipped,
				Object: existing.QualifiedName(),
				Detail: "already exists",
			})
			g.logger.Info("measure exists, skipping", slog.String("measure", name))
		default:
			if err := g.overwrite(base, existing, spec, report); err != nil {
				return fmt.Errorf("overwrite %q: %w", name, err)
			}
		}
	}
	return nil
}

func (g *Generator) create(table, name string, spec core.MeasureSpec, report *Report) error {
	if g.opts.DryRun {
		if err := g.repo.CheckMeasureName(table, name); err != nil {
			return err
		}
	} else if _, err := g.repo.CreateMeasure(table, name, spec); err != nil {
		return err
	}
	report.Created++
	report.Changes = append(report.Changes, core.Change{
		Action: core.ChangeCreated,
		Object: table + "/" + name,
		After:  spec.Expression,
	})
	g.logger.Info("created measure", slog.String("measure", name), slog.String("table", table))
	return nil
}

func (g *Generator) overwrite(base, existing *core.Measure, spec core.MeasureSpec, report *Report) error {
	change := core.Change{
		Action: core.ChangeUpdated,
		Object: existing.QualifiedName(),
		Before: existing.Expression,
		After:  spec.Expression,
	}

	if g.opts.OverwriteMode == OverwriteRecreate {
		change.Action = core.ChangeRecreated
		change.Object = base.Table + "/" + existing.Name
		// The replacement must fit before the existing measure is removed.
		if err := g.repo.CheckMeasureName(base.Table, existing.Name, existing); err != nil {
			return err
		}
		if !g.opts.DryRun {
			name := existing.Name
			if err := g.repo.DeleteMeasure(existing); err != nil {
				return err
			}
			if _, err := g.repo.CreateMeasure(base.Table, name, spec); err != nil {
				return err
			}
		}
	} else if !g.opts.DryRun {
		if err := g.repo.UpdateMeasure(existing, spec); err != nil {
			return err
		}
	}

	report.Updated++
	report.Changes = append(report.Changes, change)
	g.logger.Info("updated measure",
		slog.String("measure", existing.Name),
		slog.String("mode", string(g.opts.OverwriteMode)))
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
