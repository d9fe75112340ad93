// Package dax renders the small fragments of formula-language text that
// leapmodel writes into a model: object references, string literals and the
// CALCULATE filter wrapper used by generated measures.
//
// Nothing here parses expressions. References are matched and produced as
// plain text.
package dax

import (
	"strings"
	"unicode"
)

// PercentFormat is the format string applied to generated percentage measures.
const PercentFormat = "#,##0.00 %;(#,##0.00 %)"

// Bracket returns the bracketed reference form of a column or measure name.
// A closing bracket inside the name is doubled.
func Bracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Quote returns a string literal. Embedded double quotes are doubled.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteTable returns a single-quoted table name. Embedded single quotes are doubled.
func QuoteTable(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// TableReference returns the table name as it appears in a reference. Plain
// identifiers are left bare; anything else is single-quoted.
func TableReference(name string) string {
	if isPlainIdentifier(name) {
		return name
	}
	return QuoteTable(name)
}

// FullReference returns the fully qualified reference of a measure,
// e.g. Sales[Sales] or 'Parameter Dates'[Amount].
func FullReference(table, measure string) string {
	return TableReference(table) + Bracket(measure)
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r < unicode.MaxASCII && unicode.IsLetter(r):
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ContainsAny reports whether s contains any of the non-empty needles.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
