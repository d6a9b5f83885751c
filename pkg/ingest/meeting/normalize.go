package meeting

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// titleSynonyms maps meeting-type words to a canonical form.
var titleSynonyms = map[string]string{
	"call":    "meeting",
	"sync":    "meeting",
	"mtg":     "meeting",
	"huddle":  "meeting",
	"standup": "stand up",
	"1on1":    "one on one",
}

// NormalizeTitle returns the comparison key for a meeting title. Titles that
// differ only in case, punctuation, spacing or meeting-type synonyms compare
// equal. The result is only for matching; display keeps the original title.
func NormalizeTitle(title string) string {
	s := cases.Fold().String(norm.NFKC.String(title))
	s = nonWordPattern.ReplaceAllString(s, " ")
	words := strings.Fields(s)

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := words[i]
		// "1:1" and "1-1" survive punctuation stripping as two words.
		if w == "1" && i+1 < len(words) && words[i+1] == "1" {
			out = append(out, "one on one")
			i++
			continue
		}
		if syn, ok := titleSynonyms[w]; ok {
			w = syn
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
