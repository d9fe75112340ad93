package core

// Model is the root of a tabular semantic model.
type Model struct {
	Name   string
	Tables []*Table
}

// Table is a named container of columns and measures. A table that carries a
// CalculationGroup is a calculation-group table.
type Table struct {
	Name             string
	Columns          []*Column
	Measures         []*Measure
	CalculationGroup *CalculationGroup
}

// IsCalculationGroup reports whether the table is a calculation-group table.
func (t *Table) IsCalculationGroup() bool {
	return t != nil && t.CalculationGroup != nil
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Column is a table column. Only the identifying fields are modeled.
type Column struct {
	Name         string
	DataType     string
	SourceColumn string
}

// Measure is a named calculation owned by exactly one table.
type Measure struct {
	// Name is unique among visible measures (soft uniqueness, not enforced by the file format).
	Name string
	// Table is the name of the owning table.
	Table         string
	Expression    string
	DisplayFolder string
	FormatString  string
	IsHidden      bool
	// LineageTag is the persistent identity token. It survives in-place edits
	// and renames and is lost when a measure is deleted and recreated.
	LineageTag string
}

// QualifiedName returns "Table/Measure".
func (m *Measure) QualifiedName() string {
	return m.Table + "/" + m.Name
}

// CalculationGroup holds the calculation items of a calculation-group table.
type CalculationGroup struct {
	Precedence int
	Items      []*CalculationItem
}

// CalculationItem is one named calculation template of a calculation group.
type CalculationItem struct {
	Name                   string
	Expression             string
	FormatStringExpression string
	Ordinal                int
}

// MeasureSpec carries the measure fields written by generated-measure upserts.
type MeasureSpec struct {
	Expression    string
	DisplayFolder string
	FormatString  string
}
