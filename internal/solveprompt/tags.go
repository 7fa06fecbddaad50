package solveprompt

import (
	"regexp"
	"strings"
)

var tagPattern = func(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
}

// ExtractTagContent returns the (trimmed) content of the first
// <tag>...</tag> span in text, ported from
// original_source/src/parallel/utils.py:extract_tag_content.
func ExtractTagContent(text, tag string) (string, bool) {
	m := tagPattern(tag).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
