// Package triage classifies helpdesk tickets into a queue and priority using
// keyword rules, optionally preceded by an external language-model classifier.
package triage

import (
	"regexp"
	"strings"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// stems collapses common surface forms onto one keyword.
var stems = map[string]string{
	"broken":   "break",
	"crashed":  "crash",
	"crashing": "crash",
	"working":  "work",
	"printer":  "print",
	"printing": "print",
	"locked":   "lock",
	"locking":  "lock",
	"freezing": "freeze",
	"frozen":   "freeze",
	"heating":  "heat",
	"cooling":  "cool",
	"leaking":  "leak",
	"dripping": "drip",
}

var stemPattern = buildStemPattern()

func buildStemPattern() *regexp.Regexp {
	forms := make([]string, 0, len(stems))
	for form := range stems {
		forms = append(forms, regexp.QuoteMeta(form))
	}
	return regexp.MustCompile(`\b(` + strings.Join(forms, "|") + `)\b`)
}

// Normalize lowercases text, replaces punctuation with spaces and collapses
// known surface forms ("printing", "printer") onto a shared keyword ("print").
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = punctuation.ReplaceAllString(text, " ")
	return stemPattern.ReplaceAllStringFunc(text, func(w string) string {
		return stems[w]
	})
}
