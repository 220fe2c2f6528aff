package facematch

import (
	"fmt"
	"sort"

	"github.com/kozaktomas/face-id/internal/database"
)

// BestMatch scans every entry and returns the one most similar to probe.
// The comparison is strictly greater, so on equal similarity the earliest
// entry wins. An empty slice yields a Match with Found() == false and
// Similarity == NoMatchSimilarity.
func BestMatch(probe []float32, entries []database.Entry) (Match, error) {
	best := noMatch()
	for i := range entries {
		sim, err := database.CosineSimilarity(probe, entries[i].Embedding)
		if err != nil {
			return noMatch(), fmt.Errorf("entry %d (%s): %w", i, entries[i].PersonID, err)
		}
		if best.Entry == nil || sim > best.Similarity {
			best = Match{Entry: &entries[i], Similarity: sim, Index: i}
		}
	}
	return best, nil
}

// Rank returns up to k matches ordered by descending similarity.
// Entries with equal similarity keep their enrollment order.
// k <= 0 returns every entry.
func Rank(probe []float32, entries []database.Entry, k int) ([]Match, error) {
	matches := make([]Match, 0, len(entries))
	for i := range entries {
		sim, err := database.CosineSimilarity(probe, entries[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entries[i].PersonID, err)
		}
		matches = append(matches, Match{Entry: &entries[i], Similarity: sim, Index: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// BestPerSubject keeps only the highest ranked match of every person,
// preserving the order of ranked.
func BestPerSubject(ranked []Match) []Match {
	seen := make(map[string]struct{}, len(ranked))
	out := make([]Match, 0, len(ranked))
	for _, m := range ranked {
		if _, ok := seen[m.Entry.PersonID]; ok {
			continue
		}
		seen[m.Entry.PersonID] = struct{}{}
		out = append(out, m)
	}
	return out
}
