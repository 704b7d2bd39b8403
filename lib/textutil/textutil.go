package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CollapseWhitespace trims a string and squashes internal runs of
// whitespace into single spaces. Film titles on diary rows come
// wrapped in layout whitespace.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// NormalizeTitle reduces a film title to a matching key: lowercase
// with every non-alphanumeric rune removed, so "Se7en", "se7en" and
// "Se7en!" all collapse to the same key while "Se7en" and "Seven"
// do not.
func NormalizeTitle(title string) string {
	var out strings.Builder
	for _, c := range strings.ToLower(title) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}
