package analysis

import (
	"sort"

	"github.com/runebook/ambient/internal/types"
)

// dedupe collapses suggestions with identical titles, keeping the one
// with the higher priority, then the higher confidence. Order of the
// survivors follows their first appearance.
func dedupe(suggestions []*types.Suggestion) []*types.Suggestion {
	index := make(map[string]int)
	var result []*types.Suggestion

	for _, s := range suggestions {
		at, seen := index[s.Title]
		if !seen {
			index[s.Title] = len(result)
			result = append(result, s)
			continue
		}
		kept := result[at]
		if s.Priority.Weight() > kept.Priority.Weight() ||
			(s.Priority.Weight() == kept.Priority.Weight() && s.Confidence > kept.Confidence) {
			result[at] = s
		}
	}
	return result
}

// rank orders suggestions for presentation: priority first, then
// confidence, then recency. Full ties keep their insertion order, so
// ranking the same input twice yields the same output.
func rank(suggestions []*types.Suggestion) []*types.Suggestion {
	ranked := make([]*types.Suggestion, len(suggestions))
	copy(ranked, suggestions)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Priority.Weight() != b.Priority.Weight() {
			return a.Priority.Weight() > b.Priority.Weight()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return false
	})
	return ranked
}
