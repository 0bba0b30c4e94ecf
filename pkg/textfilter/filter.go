// Package textfilter softens generated narration for family-friendly games.
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps words unsuitable for lower content ratings to tamer
// alternatives. Matching is case-insensitive on word boundaries.
var replacements = map[string]string{
	"damn":     "dang",
	"damned":   "cursed",
	"hell":     "the abyss",
	"bastard":  "scoundrel",
	"ass":      "mule",
	"bloody":   "blasted",
	"crap":     "rubbish",
	"piss":     "spite",
	"shit":     "filth",
	"bitch":    "wretch",
	"goddamn":  "accursed",
	"bullshit": "nonsense",
}

// Filter rewrites flagged words in narrative text.
type Filter struct {
	patterns map[string]*regexp.Regexp
	titler   cases.Caser
}

// New compiles the word patterns once.
func New() *Filter {
	f := &Filter{
		patterns: make(map[string]*regexp.Regexp, len(replacements)),
		titler:   cases.Title(language.English),
	}
	for word := range replacements {
		f.patterns[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return f
}

// FilterText replaces flagged words, keeping the case shape of the original.
func (f *Filter) FilterText(text string) string {
	result := text
	for word, replacement := range replacements {
		result = f.patterns[word].ReplaceAllStringFunc(result, func(match string) string {
			return f.matchCase(match, replacement)
		})
	}
	return result
}

// Contains reports whether the text has any flagged word.
func (f *Filter) Contains(text string) bool {
	for _, pattern := range f.patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func (f *Filter) matchCase(original, replacement string) string {
	switch {
	case original == strings.ToUpper(original):
		return strings.ToUpper(replacement)
	case original == f.titler.String(strings.ToLower(original)):
		return f.titler.String(replacement)
	default:
		return replacement
	}
}

// Enabled reports whether a content rating calls for filtering.
func Enabled(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	}
	return false
}
