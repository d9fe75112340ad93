package tabular

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Repository is an in-memory core.Repository over a core.Model. It indexes
// tables by name and measures by qualified name ("Table/Measure") and by
// bare name.
type Repository struct {
	model    *core.Model
	tables   map[string]*core.Table
	measures map[string]*core.Measure
	byName   map[string][]*core.Measure
	newTag   func() string
}

var _ core.Repository = (*Repository)(nil)

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLineageTags overrides how lineage tags are generated for new measures.
func WithLineageTags(fn func() string) RepositoryOption {
	return func(r *Repository) {
		r.newTag = fn
	}
}

// NewRepository indexes model and returns a repository that mutates it.
func NewRepository(model *core.Model, opts ...RepositoryOption) *Repository {
	r := &Repository{
		model:    model,
		tables:   make(map[string]*core.Table),
		measures: make(map[string]*core.Measure),
		byName:   make(map[string][]*core.Measure),
		newTag:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, t := range model.Tables {
		r.tables[t.Name] = t
		for _, m := range t.Measures {
			m.Table = t.Name
			r.index(m)
		}
	}
	return r
}

// Model returns the underlying object model.
func (r *Repository) Model() *core.Model {
	return r.model
}

// Tables returns all tables in model order.
func (r *Repository) Tables() []*core.Table {
	return r.model.Tables
}

// Table returns the table with the given name.
func (r *Repository) Table(name string) (*core.Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Measures returns every measure in table order then measure order. The
// returned slice is a snapshot; mutations do not change its membership.
func (r *Repository) Measures() []*core.Measure {
	var out []*core.Measure
	for _, t := range r.model.Tables {
		out = append(out, t.Measures...)
	}
	return out
}

// FindMeasure returns the first visible measure with exactly this name.
func (r *Repository) FindMeasure(name string) (*core.Measure, bool) {
	for _, m := range r.byName[name] {
		if !m.IsHidden {
			return m, true
		}
	}
	return nil, false
}

// CheckMeasureName reports whether name is free in table, treating the
// measures in ignore as absent.
func (r *Repository) CheckMeasureName(table, name string, ignore ...*core.Measure) error {
	t, ok := r.tables[table]
	if !ok {
		return fmt.Errorf("table %q: %w", table, core.ErrNotFound)
	}
	return r.checkName(t, name, ignore...)
}

// CreateMeasure adds a measure to a table and assigns it a new lineage tag.
func (r *Repository) CreateMeasure(table, name string, spec core.MeasureSpec) (*core.Measure, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, core.ErrNotFound)
	}
	if err := r.checkName(t, name); err != nil {
		return nil, err
	}

	m := &core.Measure{
		Name:          name,
		Table:         t.Name,
		Expression:    spec.Expression,
		DisplayFolder: spec.DisplayFolder,
		FormatString:  spec.FormatString,
		LineageTag:    r.newTag(),
	}
	t.Measures = append(t.Measures, m)
	r.index(m)
	return m, nil
}

// UpdateMeasure rewrites expression, folder and format in place.
func (r *Repository) UpdateMeasure(m *core.Measure, spec core.MeasureSpec) error {
	if err := r.owned(m); err != nil {
		return err
	}
	m.Expression = spec.Expression
	m.DisplayFolder = spec.DisplayFolder
	m.FormatString = spec.FormatString
	return nil
}

// DeleteMeasure removes a measure from its table.
func (r *Repository) DeleteMeasure(m *core.Measure) error {
	if err := r.owned(m); err != nil {
		return err
	}
	t := r.tables[m.Table]
	t.Measures = slices.DeleteFunc(t.Measures, func(x *core.Measure) bool { return x == m })
	r.unindex(m)
	return nil
}

// RenameMeasure changes a measure's name. Measure names are unique across
// the model, and must not clash with a column of the owning table.
func (r *Repository) RenameMeasure(m *core.Measure, newName string) error {
	if err := r.owned(m); err != nil {
		return err
	}
	if newName == m.Name {
		return nil
	}
	if err := r.checkName(r.tables[m.Table], newName, m); err != nil {
		return err
	}
	r.unindex(m)
	m.Name = newName
	r.index(m)
	return nil
}

// SetMeasureExpression replaces a measure's expression text.
func (r *Repository) SetMeasureExpression(m *core.Measure, expression string) error {
	if err := r.owned(m); err != nil {
		return err
	}
	m.Expression = expression
	return nil
}

// SetCalculationItem replaces a calculation item's expressions.
func (r *Repository) SetCalculationItem(item *core.CalculationItem, expression, formatStringExpression string) error {
	for _, t := range r.model.Tables {
		if !t.IsCalculationGroup() {
			continue
		}
		if slices.Contains(t.CalculationGroup.Items, item) {
			item.Expression = expression
			item.FormatStringExpression = formatStringExpression
			return nil
		}
	}
	return fmt.Errorf("calculation item %q: %w", item.Name, core.ErrNotFound)
}

func (r *Repository) checkName(t *core.Table, name string, ignore ...*core.Measure) error {
	if name == "" {
		return fmt.Errorf("measure name must not be empty")
	}
	for _, other := range r.byName[name] {
		if !slices.Contains(ignore, other) {
			return fmt.Errorf("measure %q already exists in table %q: %w", name, other.Table, core.ErrDuplicateName)
		}
	}
	if _, ok := t.Column(name); ok {
		return fmt.Errorf("table %q has a column named %q: %w", t.Name, name, core.ErrDuplicateName)
	}
	return nil
}

func (r *Repository) owned(m *core.Measure) error {
	if m == nil || r.measures[m.QualifiedName()] != m {
		name := "<nil>"
		if m != nil {
			name = m.QualifiedName()
		}
		return fmt.Errorf("measure %s: %w", name, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) index(m *core.Measure) {
	r.measures[m.QualifiedName()] = m
	r.byName[m.Name] = append(r.byName[m.Name], m)
}

func (r *Repository) unindex(m *core.Measure) {
	delete(r.measures, m.QualifiedName())
	rest := slices.DeleteFunc(r.byName[m.Name], func(x *core.Measure) bool { return x == m })
	if len(rest) == 0 {
		delete(r.byName, m.Name)
		return
	}
	r.byName[m.Name] = rest
}
