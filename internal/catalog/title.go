package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle trims the input and title-cases it, the form titles are
// looked up by. Blank input yields "".
func NormalizeTitle(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.English).String(trimmed)
}
