package dax

import "strings"

// CalculateFilterParams are the inputs of CalculateFilter.
type CalculateFilterParams struct {
	// BaseReference is the fully qualified reference of the wrapped measure.
	BaseReference string
	// Group is the calculation-group table name.
	Group string
	// Column is the identifying column of the calculation group.
	Column string
	// Item is the calculation item name compared against Column.
	Item string
	// EscapeQuotes doubles double quotes inside Item. When false the item
	// name is inserted verbatim, which yields invalid text for names that
	// contain a double quote.
	EscapeQuotes bool
}

// CalculateFilter renders the expression of a generated measure:
//
//	CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "YTD" )
//
// The exact text is stable across releases so regenerated measures do not
// produce diff noise.
func CalculateFilter(p CalculateFilterParams) string {
	item := p.Item
	if p.EscapeQuotes {
		item = strings.ReplaceAll(item, `"`, `""`)
	}

	var b strings.Builder
	b.WriteString("CALCULATE( ")
	b.WriteString(p.BaseReference)
	b.WriteString(", ")
	b.WriteString(QuoteTable(p.Group))
	b.WriteString(Bracket(p.Column))
	b.WriteString(`= "`)
	b.WriteString(item)
	b.WriteString(`" )`)
	return b.String()
}
