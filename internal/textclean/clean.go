// Package textclean normalizes extracted page text so it can be matched against the
// trained keyword table. The same cleaning was applied to the training corpus; changing
// it shifts which keywords are found.
package textclean

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements run in order, each over the whole text.
var replacements = [][2]string{
	{"‘", "'"}, {"’", "'"}, {"–", "-"}, {"—", "-"},
	{"..", ""},
	{"  ", " "}, {"- ", ""}, {". ", ""}, {". ", ""},
	{"\n", " "}, {"\r", " "},
	{".", ""}, {",", ""}, {"$", ""}, {"'", ""},
	{"(", ""}, {")", ""}, {"note", ""},
}

func newFolder() transform.Transformer {
	return transform.Chain(
		norm.NFKC,
		cases.Lower(language.Und),
		runes.Remove(runes.Predicate(unicode.IsDigit)),
	)
}

// Clean lowercases text, strips digits and punctuation, drops one-letter words and
// collapses spaces.
func Clean(text string) string {
	folded, _, err := transform.String(newFolder(), text)
	if err != nil {
		folded = strings.ToLower(text)
	}

	for _, r := range replacements {
		folded = strings.ReplaceAll(folded, r[0], r[1])
	}

	words := strings.Split(folded, " ")
	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) > 1 {
			kept = append(kept, w)
		}
	}
	out := strings.Join(kept, " ")

	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return out
}
