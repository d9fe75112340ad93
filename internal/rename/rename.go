// Package rename renames measures by literal find-and-replace and
// propagates the new names into every expression that references them.
//
// References are matched as text in two forms only: the bracketed
// reference [Name] and the string literal "Name". Partially qualified or
// otherwise spelled references are not rewritten.
package rename

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/dax"
)

// Options configures a rename run.
type Options struct {
	Pairs []Pair
	// IncludeTables limits renaming to tables starting with one of the
	// prefixes. Empty includes every table. Reference propagation always
	// covers the whole model.
	IncludeTables []string
	// IncludeHidden makes hidden measures eligible for renaming.
	IncludeHidden bool
	// CalculationItems also rewrites calculation item expressions and
	// format-string expressions.
	CalculationItems bool
	// Preview reports projected counts without modifying the model.
	Preview bool
}

// Mapping is one measure rename.
type Mapping struct {
	Table string
	From  string
	To    string
}

// Report summarizes a rename run.
type Report struct {
	Renames                  []Mapping
	ExpressionsUpdated       int
	ItemExpressionsUpdated   int
	ItemFormatStringsUpdated int
	Errors                   int
	// NoOp is set when no measure name matched any pair.
	NoOp bool
	// Approximate is set in preview mode: counts are projections.
	Approximate bool
	Changes     []core.Change
}

// ReferencesUpdated returns the total number of rewritten expressions.
func (r *Report) ReferencesUpdated() int {
	return r.ExpressionsUpdated + r.ItemExpressionsUpdated + r.ItemFormatStringsUpdated
}

// Summary converts the report into run-history counts.
func (r *Report) Summary() core.RunSummary {
	return core.RunSummary{
		Renamed: len(r.Renames),
		Updated: r.ReferencesUpdated(),
		Errors:  r.Errors,
	}
}

// Propagator runs renames against a repository.
type Propagator struct {
	repo   core.Repository
	opts   Options
	logger *slog.Logger
}

// New creates a propagator. A nil logger discards output.
func New(repo core.Repository, opts Options, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Propagator{repo: repo, opts: opts, logger: logger}
}

// Run renames matching measures, then rewrites references to them.
func (p *Propagator) Run(ctx context.Context) (*Report, error) {
	report := &Report{Approximate: p.opts.Preview}

	p.renameMeasures(report)
	if len(report.Renames) == 0 {
		report.NoOp = true
		p.logger.Info("no measure names matched the replacement pairs", slog.Int("pairs", len(p.opts.Pairs)))
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	if p.opts.Preview {
		p.project(report)
		p.logger.Info("preview finished, counts are approximate",
			slog.Int("renamed", len(report.Renames)),
			slog.Int("expressions", report.ExpressionsUpdated),
			slog.Int("item_expressions", report.ItemExpressionsUpdated),
			slog.Int("item_format_strings", report.ItemFormatStringsUpdated))
		return report, nil
	}

	p.updateMeasureExpressions(report)
	if p.opts.CalculationItems {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.updateCalculationItems(report)
	}

	p.logger.Info("rename finished",
		slog.Int("renamed", len(report.Renames)),
		slog.Int("expressions", report.ExpressionsUpdated),
		slog.Int("item_expressions", report.ItemExpressionsUpdated),
		slog.Int("item_format_strings", report.ItemFormatStringsUpdated),
		slog.Int("errors", report.Errors))
	if report.ReferencesUpdated() == 0 {
		p.logger.Warn("measures were renamed but no references were updated; they may be unreferenced or referenced in a form the scan does not match")
	}
	return report, nil
}

// renameMeasures is phase 1. In preview the repository is left alone, so the
// names vacated and taken by earlier projected renames are tracked here.
func (p *Propagator) renameMeasures(report *Report) {
	vacated := make(map[string][]*core.Measure)
	taken := make(map[string]bool)

	for _, m := range p.repo.Measures() {
		if m.IsHidden && !p.opts.IncludeHidden {
			continue
		}
		if len(p.opts.IncludeTables) > 0 && !hasAnyPrefix(m.Table, p.opts.IncludeTables) {
			continue
		}

		newName := ApplyPairs(m.Name, p.opts.Pairs)
		if newName == m.Name {
			continue
		}

		oldName := m.Name
		var err error
		if p.opts.Preview {
			err = p.projectRename(m, newName, vacated, taken)
		} else {
			err = p.repo.RenameMeasure(m, newName)
		}
		if err != nil {
			report.Errors++
			report.Changes = append(report.Changes, core.Change{
				Action: core.ChangeError,
				Object: m.QualifiedName(),
				Before: oldName,
				After:  newName,
				Detail: err.Error(),
			})
			p.logger.Error("failed to rename measure",
				slog.String("measure", oldName),
				slog.String("new_name", newName),
				slog.String("error", err.Error()))
			continue
		}

		report.Renames = append(report.Renames, Mapping{Table: m.Table, From: oldName, To: newName})
		report.Changes = append(report.Changes, core.Change{
			Action: core.ChangeRenamed,
			Object: m.Table + "/" + newName,
			Before: oldName,
			After:  newName,
		})
		p.logger.Info("renamed measure", slog.String("from", oldName), slog.String("to", newName), slog.String("table", m.Table))
	}
}

// projectRename applies the repository's name rules to a rename that is not
// carried out.
func (p *Propagator) projectRename(m *core.Measure, newName string, vacated map[string][]*core.Measure, taken map[string]bool) error {
	if taken[newName] {
		return fmt.Errorf("measure %q is already the target of another rename: %w", newName, core.ErrDuplicateName)
	}
	ignore := append([]*core.Measure{m}, vacated[newName]...)
	if err := p.repo.CheckMeasureName(m.Table, newName, ignore...); err != nil {
		return err
	}
	vacated[m.Name] = append(vacated[m.Name], m)
	taken[newName] = true
	return nil
}

// updateMeasureExpressions is phase 2.
func (p *Propagator) updateMeasureExpressions(report *Report) {
	for _, m := range p.repo.Measures() {
		updated := replaceReferences(m.Expression, report.Renames, false)
		if updated == m.Expression {
			continue
		}
		before := m.Expression
		if err := p.repo.SetMeasureExpression(m, updated); err != nil {
			p.fail(report, m.QualifiedName(), err)
			continue
		}
		report.ExpressionsUpdated++
		report.Changes = append(report.Changes, core.Change{
			Action: core.ChangeExpression,
			Object: m.QualifiedName(),
			Before: before,
			After:  updated,
		})
		p.logger.Debug("updated measure expression", slog.String("measure", m.Name))
	}
}

// updateCalculationItems is phase 3.
func (p *Propagator) updateCalculationItems(report *Report) {
	for _, t := range p.repo.Tables() {
		if !t.IsCalculationGroup() {
			continue
		}
		for _, item := range t.CalculationGroup.Items {
			object := t.Name + "/" + item.Name
			expr := replaceReferences(item.Expression, report.Renames, true)
			format := replaceReferences(item.FormatStringExpression, report.Renames, true)
			if expr == item.Expression && format == item.FormatStringExpression {
				continue
			}

			beforeExpr, beforeFormat := item.Expression, item.FormatStringExpression
			if err := p.repo.SetCalculationItem(item, expr, format); err != nil {
				p.fail(report, object, err)
				continue
			}
			if expr != beforeExpr {
				report.ItemExpressionsUpdated++
				report.Changes = append(report.Changes, core.Change{
					Action: core.ChangeItemExpression, Object: object, Before: beforeExpr, After: expr,
				})
			}
			if format != beforeFormat {
				report.ItemFormatStringsUpdated++
				report.Changes = append(report.Changes, core.Change{
					Action: core.ChangeItemFormat, Object: object, Before: beforeFormat, After: format,
				})
			}
			p.logger.Debug("updated calculation item", slog.String("item", object))
		}
	}
}

// project counts the expressions phases 2 and 3 would touch.
func (p *Propagator) project(report *Report) {
	for _, m := range p.repo.Measures() {
		if referencesAny(m.Expression, report.Renames, false) {
			report.ExpressionsUpdated++
		}
	}
	if !p.opts.CalculationItems {
		return
	}
	for _, t := range p.repo.Tables() {
		if !t.IsCalculationGroup() {
			continue
		}
		for _, item := range t.CalculationGroup.Items {
			if referencesAny(item.Expression, report.Renames, true) {
				report.ItemExpressionsUpdated++
			}
			if referencesAny(item.FormatStringExpression, report.Renames, true) {
				report.ItemFormatStringsUpdated++
			}
		}
	}
}

func (p *Propagator) fail(report *Report, object string, err error) {
	report.Errors++
	report.Changes = append(report.Changes, core.Change{Action: core.ChangeError, Object: object, Detail: err.Error()})
	p.logger.Error("failed to update references", slog.String("object", object), slog.String("error", err.Error()))
}

// replaceReferences rewrites [old] to [new] for every mapping, and "old" to
// "new" as well when literals is set.
func replaceReferences(expr string, renames []Mapping, literals bool) string {
	if expr == "" {
		return expr
	}
	for _, r := range renames {
		expr = strings.ReplaceAll(expr, dax.Bracket(r.From), dax.Bracket(r.To))
		if literals {
			expr = strings.ReplaceAll(expr, dax.Quote(r.From), dax.Quote(r.To))
		}
	}
	return expr
}

func referencesAny(expr string, renames []Mapping, literals bool) bool {
	if expr == "" {
		return false
	}
	for _, r := range renames {
		if strings.Contains(expr, dax.Bracket(r.From)) {
			return true
		}
		if literals && strings.Contains(expr, dax.Quote(r.From)) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
