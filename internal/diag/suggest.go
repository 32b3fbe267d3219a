package diag

import (
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Suggestion thresholds for "did you mean" hints.
const (
	SimilarityThreshold = 0.8
	ClearWinnerMargin   = 0.25
	MaxSuggestions      = 3
)

// Similarity is the normalised edit-distance ratio of a and b in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

type scored struct {
	name  string
	score float64
}

// Suggest returns the candidates similar to word, best first.
//
// Only candidates with Similarity >= SimilarityThreshold qualify. When the
// best candidate beats the runner-up by at least ClearWinnerMargin it is
// returned alone, otherwise up to MaxSuggestions are listed.
func Suggest(word string, candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c == word || seen[c] {
			continue
		}
		seen[c] = true
		ranked = append(ranked, scored{name: c, score: Similarity(word, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	if len(ranked) == 0 || ranked[0].score < SimilarityThreshold {
		return nil
	}
	if len(ranked) == 1 || ranked[0].score-ranked[1].score >= ClearWinnerMargin {
		return []string{ranked[0].name}
	}

	var out []string
	for _, r := range ranked {
		if r.score < SimilarityThreshold || len(out) == MaxSuggestions {
			break
		}
		out = append(out, r.name)
	}
	return out
}
