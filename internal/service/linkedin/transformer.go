package linkedin

import (
	"regexp"
	"strings"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern  = regexp.MustCompile(`\*([^*]+)\*`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
)

// StripMarkup removes the lightweight markup the dashboard editor carries
// over from LLM output. LinkedIn posts accept plain text only.
func StripMarkup(content string) string {
	content = boldPattern.ReplaceAllString(content, "$1")
	content = italicPattern.ReplaceAllString(content, "$1")
	content = headingPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "◆", "•")
	return content
}
