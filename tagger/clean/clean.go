// Package clean normalises raw review text before it is vectorized.
// Training and inference must share this exact rule.
package clean

import (
	"regexp"
	"strings"
)

var (
	tagPattern       = regexp.MustCompile(`<.*?>`)
	nonLetterPattern = regexp.MustCompile(`[^a-zA-Z]`)
)

// Clean strips HTML-like tags, turns every non-letter into a single space
// and lowercases what is left. Tags are matched non-greedily with no
// nesting awareness, so "a < b" keeps its "<" until the second step.
func Clean(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = nonLetterPattern.ReplaceAllString(text, " ")
	return strings.ToLower(text)
}

// All cleans every text in place and returns the same slice.
func All(texts []string) []string {
	for i, t := range texts {
		texts[i] = Clean(t)
	}
	return texts
}
