package strings

import (
	"strings"
)

// DefaultMessageMaxLen is the default width of error messages in table output.
const DefaultMessageMaxLen = 48

// MinTruncateLen is the smallest maxLen TruncateMessage honours.
const MinTruncateLen = 4

// TruncateMessage collapses all whitespace in s to single spaces and cuts it
// to at most maxLen runes, ending in "..." when something was removed.
//
// Runtime error strings frequently span several lines (the Docker API returns
// JSON bodies with embedded newlines), so they are flattened before they reach
// a table cell.
func TruncateMessage(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// OrDash returns "-" for empty strings so table cells are never blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
