// Package facematch finds the enrolled face closest to a probe embedding.
// It is shared by the recognition services, the CLI and the web handlers.
package facematch

import "github.com/kozaktomas/face-id/internal/database"

// NoMatchSimilarity is the similarity reported when there is nothing to compare against.
const NoMatchSimilarity = -1.0

// Match is the result of comparing a probe against enrolled entries.
// Entry is nil when the collection was empty.
type Match struct {
	Entry      *database.Entry
	Similarity float64
	Index      int // position of Entry in the scanned slice, -1 when not found
}

// Found reports whether the scan produced a match.
func (m Match) Found() bool {
	return m.Entry != nil
}

// noMatch is returned for an empty collection.
func noMatch() Match {
	return Match{Similarity: NoMatchSimilarity, Index: -1}
}
