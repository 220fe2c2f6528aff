package facematch

import (
	"strings"
	"unicode"

	"github.com/kozaktomas/face-id/internal/database"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizePersonName normalizes a name for comparison (lowercase, no diacritics, spaces for dashes).
func NormalizePersonName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// MatchesName reports whether query occurs in the person's display name or id,
// ignoring case and diacritics. An empty query matches everything.
func MatchesName(e *database.Entry, query string) bool {
	q := strings.TrimSpace(NormalizePersonName(query))
	if q == "" {
		return true
	}
	return strings.Contains(NormalizePersonName(e.DisplayName), q) ||
		strings.Contains(NormalizePersonName(e.PersonID), q)
}
