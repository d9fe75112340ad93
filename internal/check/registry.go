// Package check provides model health rules.
//
// Rules register themselves from init() and run against a core.Repository:
//
//   - MC01: Duplicate Measure Name - two visible measures share a name
//   - MC02: Unresolved Reference - [Name] matches no measure or column
//   - MC03: Empty Expression - measure without an expression
//   - MC04: Empty Calculation Group - calculation group without items
package check

import (
	"sort"
	"sync"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// globalRegistry is the single global registry for model rules.
var globalRegistry = &Registry{
	rules: make(map[string]RuleDef),
}

// Registry stores registered rules for discovery.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]RuleDef // keyed by ID
}

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Check is the function signature for rule checks.
type Check func(repo core.Repository) []Diagnostic

// RuleDef is a model rule definition.
type RuleDef struct {
	ID          string // Unique identifier, e.g., "MC01"
	Name        string // Human-readable name, e.g., "duplicate-measure-name"
	Description string
	Severity    Severity
	Check       Check
}

// Diagnostic represents a finding.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Message  string
	// Object is the qualified name of the offending object.
	Object string
}

// Register adds a rule to the global registry.
// Call this from init() functions.
func Register(rule RuleDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.rules[rule.ID] = rule
}

// All returns all registered rules sorted by ID.
func All() []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	rules := make([]RuleDef, 0, len(globalRegistry.rules))
	for _, r := range globalRegistry.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// Run executes every registered rule, skipping the IDs in disabled.
func Run(repo core.Repository, disabled ...string) []Diagnostic {
	skip := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		skip[id] = true
	}

	var diags []Diagnostic
	for _, rule := range All() {
		if skip[rule.ID] {
			continue
		}
		diags = append(diags, rule.Check(repo)...)
	}
	return diags
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
