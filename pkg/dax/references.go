package dax

import "strings"

// Reference is a bracketed object reference found in an expression.
type Reference struct {
	// Table is the table part of a qualified reference, unquoted.
	Table string
	// Name is the column or measure name with escapes resolved.
	Name string
	// Qualified is set when the reference is preceded by a table name.
	Qualified bool
}

// References scans expr for bracketed references. String literals and
// comments are skipped. The scan is lexical only.
func References(expr string) []Reference {
	var refs []Reference
	var lastTable string
	tableEnd := -1

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '"':
			i = skipQuoted(expr, i, '"')
		case c == '/' && i+1 < len(expr) && expr[i+1] == '/',
			c == '-' && i+1 < len(expr) && expr[i+1] == '-':
			if nl := strings.IndexByte(expr[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(expr)
			}
		case c == '/' && i+1 < len(expr) && expr[i+1] == '*':
			if end := strings.Index(expr[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(expr)
			}
		case c == '\'':
			end := skipQuoted(expr, i, '\'')
			lastTable = strings.ReplaceAll(expr[i+1:min(end, len(expr))], "''", "'")
			tableEnd = end + 1
			i = end
		case c == '[':
			end, name := scanBracket(expr, i)
			ref := Reference{Name: name}
			switch {
			case tableEnd == i:
				ref.Table, ref.Qualified = lastTable, true
			case i > 0 && isIdentByte(expr[i-1]):
				start := i
				for start > 0 && isIdentByte(expr[start-1]) {
					start--
				}
				ref.Table, ref.Qualified = expr[start:i], true
			}
			refs = append(refs, ref)
			i = end
		}
	}
	return refs
}

// skipQuoted returns the index of the closing quote of the literal starting
// at open. Doubled quotes are escapes.
func skipQuoted(s string, open int, q byte) int {
	for i := open + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i
	}
	return len(s)
}

func scanBracket(s string, open int) (int, string) {
	var b strings.Builder
	for i := open + 1; i < len(s); i++ {
		if s[i] != ']' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == ']' {
			b.WriteByte(']')
			i++
			continue
		}
		return i, b.String()
	}
	return len(s), b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}
