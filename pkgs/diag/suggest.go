package diag

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestDistance bounds the edit distance of a suggestion
const maxSuggestDistance = 3

// Suggest returns the candidate closest to word, or "" when nothing is close
// enough to be worth offering.
func Suggest(word string, candidates []string) string {
	if word == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(word, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		if ranks[0].Distance <= maxSuggestDistance && ranks[0].Target != word {
			return ranks[0].Target
		}
		return ""
	}
	// Extra characters: search the other way round
	for _, c := range candidates {
		if fuzzy.MatchFold(c, word) && len(word)-len(c) <= 2 {
			return c
		}
	}
	return ""
}

// DidYouMean formats a suggestion suffix for a message, or "" when there is
// none.
func DidYouMean(word string, candidates []string) string {
	if s := Suggest(word, candidates); s != "" {
		return "; did you mean '" + s + "'?"
	}
	return ""
}
