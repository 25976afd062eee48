package bridge

import (
	"html"
	"strings"
)

// Escape HTML-escapes <, >, &, ' and ". Invalid UTF-8 sequences are replaced
// with U+FFFD first, so the result is always valid UTF-8.
func Escape(s string) string {
	return html.EscapeString(strings.ToValidUTF8(s, "�"))
}
