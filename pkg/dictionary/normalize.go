package dictionary

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizePronunciation lower-cases a reading and composes its tone marks
// (NFC) so keys compare equal regardless of how the source encoded them.
func NormalizePronunciation(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// ValidPronunciation reports whether p, once normalized, looks like a single
// romanized syllable: non-empty, letters and combining tone marks only.
// Some readings such as "m̄" have no precomposed form, hence the marks.
func ValidPronunciation(p string) bool {
	p = NormalizePronunciation(p)
	if p == "" {
		return false
	}
	for _, r := range p {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return true
}
