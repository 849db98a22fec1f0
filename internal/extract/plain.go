package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a string with invalid UTF-8 replaced.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}

// splitMarkdownTitle finds the first "# " heading before any other text and
// returns it with the remaining body.
func splitMarkdownTitle(text string) (title, body string, ok bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") {
			return "", text, false
		}
		title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		if title == "" {
			return "", text, false
		}
		return title, strings.Join(lines[i+1:], "\n"), true
	}
	return "", text, false
}
