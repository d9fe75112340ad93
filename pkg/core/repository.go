package core

import "errors"

// Sentinel errors returned by Repository implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
)

// Repository is the narrow object-model API the batch operations run against.
// Every mutation takes effect immediately and is visible to subsequent reads.
type Repository interface {
	// Tables returns all tables in model order.
	Tables() []*Table
	// Table returns the table with the given name.
	Table(name string) (*Table, bool)
	// Measures returns every measure, in table order then measure order.
	Measures() []*Measure
	// FindMeasure returns the visible measure with exactly this name.
	FindMeasure(name string) (*Measure, bool)

	// CheckMeasureName reports the error CreateMeasure or RenameMeasure would
	// return for name in table, without changing anything. Measures in ignore
	// do not count as collisions.
	CheckMeasureName(table, name string, ignore ...*Measure) error

	// CreateMeasure adds a measure to a table and assigns it a new lineage tag.
	CreateMeasure(table, name string, spec MeasureSpec) (*Measure, error)
	// UpdateMeasure rewrites expression, folder and format in place.
	UpdateMeasure(m *Measure, spec MeasureSpec) error
	// DeleteMeasure removes a measure from its table.
	DeleteMeasure(m *Measure) error
	// RenameMeasure changes a measure's name, keeping its lineage tag.
	RenameMeasure(m *Measure, newName string) error
	// SetMeasureExpression replaces a measure's expression text.
	SetMeasureExpression(m *Measure, expression string) error
	// SetCalculationItem replaces a calculation item's expression and
	// format-string expression.
	SetCalculationItem(item *CalculationItem, expression, formatStringExpression string) error
}
