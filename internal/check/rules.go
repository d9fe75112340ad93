package check

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/dax"
)

func init() {
	Register(RuleDef{
		ID:          "MC01",
		Name:        "duplicate-measure-name",
		Description: "Two visible measures share a name",
		Severity:    SeverityError,
		Check:       checkDuplicateNames,
	})
	Register(RuleDef{
		ID:          "MC02",
		Name:        "unresolved-reference",
		Description: "Unqualified [Name] reference that matches no measure or column",
		Severity:    SeverityWarning,
		Check:       checkUnresolvedReferences,
	})
	Register(RuleDef{
		ID:          "MC03",
		Name:        "empty-expression",
		Description: "Measure without an expression",
		Severity:    SeverityWarning,
		Check:       checkEmptyExpressions,
	})
	Register(RuleDef{
		ID:          "MC04",
		Name:        "calculation-group-without-items",
		Description: "Calculation group without calculation items",
		Severity:    SeverityWarning,
		Check:       checkEmptyCalculationGroups,
	})
}

func checkDuplicateNames(repo core.Repository) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]*core.Measure)
	for _, m := range repo.Measures() {
		if m.IsHidden {
			continue
		}
		if first, ok := seen[m.Name]; ok {
			diags = append(diags, Diagnostic{
				RuleID:   "MC01",
				Severity: SeverityError,
				Message:  fmt.Sprintf("Measure '%s' is also defined in table '%s'", m.Name, first.Table),
				Object:   m.QualifiedName(),
			})
			continue
		}
		seen[m.Name] = m
	}
	return diags
}

// checkUnresolvedReferences flags unqualified references that resolve to
// nothing. Such references are usually left behind by a rename that used a
// reference form the propagation does not rewrite.
func checkUnresolvedReferences(repo core.Repository) []Diagnostic {
	known := make(map[string]bool)
	for _, t := range repo.Tables() {
		for _, c := range t.Columns {
			known[c.Name] = true
		}
	}
	for _, m := range repo.Measures() {
		known[m.Name] = true
	}

	var diags []Diagnostic
	report := func(object, expr string) {
		for _, ref := range dax.References(expr) {
			if ref.Qualified || known[ref.Name] {
				continue
			}
			diags = append(diags, Diagnostic{
				RuleID:   "MC02",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Reference %s matches no measure or column", dax.Bracket(ref.Name)),
				Object:   object,
			})
		}
	}

	for _, m := range repo.Measures() {
		report(m.QualifiedName(), m.Expression)
	}
	for _, t := range repo.Tables() {
		if !t.IsCalculationGroup() {
			continue
		}
		for _, item := range t.CalculationGroup.Items {
			report(t.Name+"/"+item.Name, item.Expression)
			report(t.Name+"/"+item.Name, item.FormatStringExpression)
		}
	}
	return diags
}

func checkEmptyExpressions(repo core.Repository) []Diagnostic {
	var diags []Diagnostic
	for _, m := range repo.Measures() {
		if strings.TrimSpace(m.Expression) != "" {
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:   "MC03",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Measure '%s' has no expression", m.Name),
			Object:   m.QualifiedName(),
		})
	}
	return diags
}

func checkEmptyCalculationGroups(repo core.Repository) []Diagnostic {
	var diags []Diagnostic
	for _, t := range repo.Tables() {
		if !t.IsCalculationGroup() || len(t.CalculationGroup.Items) > 0 {
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:   "MC04",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Calculation group '%s' has no calculation items", t.Name),
			Object:   t.Name,
		})
	}
	return diags
}
