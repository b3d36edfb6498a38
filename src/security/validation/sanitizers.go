// Package validation sanitizes user-entered text before it is written into
// spreadsheet cells on the remote store.
package validation

import (
	"strings"
	"unicode"
)

// SanitizeForFormulaInjection prepends a single quote if the string starts
// with a formula character, so spreadsheet software treats the cell as text.
// Debtor names and contract numbers are free-form user input and end up in
// sheet cells verbatim.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 0 {
		switch rune(trimmed[0]) {
		case '=', '+', '-', '@', '\t', '\r':
			return "'" + s
		}
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common
// whitespace like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanCell applies both sanitizers, the combination every outgoing text cell
// goes through.
func CleanCell(s string) string {
	return SanitizeForFormulaInjection(StripUnprintable(s))
}
