// Package converter replaces Chinese characters with randomly chosen
// homophones, preferring rare or common ones depending on the Mode.
package converter

import (
	"math/rand"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
)

// Mode selects which homophone tier is preferred.
type Mode string

const (
	ModeRareOnly      Mode = "rare-only"
	ModeRareAndCommon Mode = "rare-and-common"
	ModeCommonOnly    Mode = "common-only"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeRareOnly, ModeRareAndCommon, ModeCommonOnly:
		return true
	}
	return false
}

// Picker chooses one element of a non-empty candidate list.
type Picker func(candidates []string) string

// RandomPicker picks uniformly at random. Safe for concurrent use.
func RandomPicker(candidates []string) string {
	return candidates[rand.Intn(len(candidates))]
}

// CandidateTiers are the homophones of a character, original excluded.
type CandidateTiers struct {
	All    []string // every homophone
	Rare   []string // homophones outside the common set
	Common []string // homophones inside the common set
}

// Selector picks substitutes from a fixed set of dictionaries.
// It holds no mutable state and may be shared between goroutines.
type Selector struct {
	dicts *dictionary.Dictionaries
	pick  Picker
}

// NewSelector creates a Selector. A nil pick means RandomPicker.
func NewSelector(dicts *dictionary.Dictionaries, pick Picker) *Selector {
	if dicts == nil {
		dicts = dictionary.New(nil, nil)
	}
	if pick == nil {
		pick = RandomPicker
	}
	return &Selector{dicts: dicts, pick: pick}
}

// Dictionaries returns the data the selector reads from.
func (s *Selector) Dictionaries() *dictionary.Dictionaries { return s.dicts }

// IsChinese reports whether char is exactly one Han ideograph.
func IsChinese(char string) bool {
	r, size := utf8.DecodeRuneInString(char)
	if size == 0 || size != len(char) {
		return false
	}
	return unicode.Is(unicode.Han, r)
}

// Tiers computes the three candidate tiers of char under pronunciation.
func (s *Selector) Tiers(char, pronunciation string) CandidateTiers {
	p := dictionary.NormalizePronunciation(pronunciation)
	all := lo.Without(s.dicts.Pronunciations.Lookup(p), char)
	rare := lo.Without(s.dicts.Rare.Lookup(p), char)

	common := lo.Filter(all, func(c string, _ int) bool {
		return s.dicts.Common.Contains(c)
	})
	return CandidateTiers{All: all, Rare: rare, Common: common}
}

// PickTier applies the mode policy: the preferred tier when it has
// candidates, All otherwise. Unknown modes get nothing.
func PickTier(mode Mode, t CandidateTiers) []string {
	switch mode {
	case ModeRareOnly:
		if len(t.Rare) > 0 {
			return t.Rare
		}
		return t.All
	case ModeCommonOnly:
		if len(t.Common) > 0 {
			return t.Common
		}
		return t.All
	case ModeRareAndCommon:
		return t.All
	default:
		return nil
	}
}

// Candidates returns the set Select draws from. Empty means char is kept.
func (s *Selector) Candidates(char, pronunciation string, mode Mode) []string {
	if !IsChinese(char) {
		return nil
	}
	if !dictionary.ValidPronunciation(pronunciation) {
		return nil
	}
	tiers := s.Tiers(char, pronunciation)
	if len(tiers.All) == 0 {
		return nil
	}
	return PickTier(mode, tiers)
}

// Select returns a homophone of char for mode, or char itself when there is
// nothing to substitute. It never fails.
func (s *Selector) Select(char, pronunciation string, mode Mode) string {
	candidates := s.Candidates(char, pronunciation, mode)
	if len(candidates) == 0 {
		return char
	}
	return s.pick(candidates)
}
