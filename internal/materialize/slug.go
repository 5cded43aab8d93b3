// Package materialize converts queued tasks into on-disk spec folders.
package materialize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 40

var (
	// stripMarks decomposes accented characters and drops the combining marks,
	// so "Écran" becomes "Ecran".
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug derives a deterministic, filesystem-safe folder suffix from a title:
// lowercased, diacritics stripped, non-alphanumeric runs collapsed to single
// hyphens, trimmed, and truncated to a bounded length.
func Slug(title string) string {
	s := strings.ToLower(title)
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	s = nonAlnumRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}
