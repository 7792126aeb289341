package dictionary

import (
	"sort"

	"github.com/samber/lo"
)

// PronunciationDict maps a normalized pronunciation (lower-case, tone marks
// kept) to the distinct characters read that way, in first-seen order.
type PronunciationDict map[string][]string

// Lookup returns the characters for pronunciation. An absent key yields nil.
func (pd PronunciationDict) Lookup(pronunciation string) []string {
	return pd[pronunciation]
}

// Add appends char under pronunciation, creating the key when needed.
func (pd PronunciationDict) Add(pronunciation, char string) {
	pd[pronunciation] = append(pd[pronunciation], char)
}

// Keys returns the pronunciations in sorted order.
func (pd PronunciationDict) Keys() []string {
	keys := lo.Keys(pd)
	sort.Strings(keys)
	return keys
}

// CharCount returns the total number of (pronunciation, character) entries.
func (pd PronunciationDict) CharCount() int {
	n := 0
	for _, chars := range pd {
		n += len(chars)
	}
	return n
}

// CharacterDict is the reverse index of a PronunciationDict: character to
// the pronunciations it appears under.
type CharacterDict map[string][]string

// Lookup returns the pronunciations of char. An absent key yields nil.
func (cd CharacterDict) Lookup(char string) []string {
	return cd[char]
}

// RareSubsetDict maps a pronunciation to its characters that are not in the
// common set. A pronunciation whose characters are all common maps to an
// empty, non-nil slice.
type RareSubsetDict map[string][]string

// Lookup returns the rare characters for pronunciation. An absent key yields nil.
func (rd RareSubsetDict) Lookup(pronunciation string) []string {
	return rd[pronunciation]
}

// BuildCharacterDict derives the character → pronunciations index.
// Pronunciations are visited in sorted order so polyphone lists are stable.
func BuildCharacterDict(pd PronunciationDict) CharacterDict {
	cd := make(CharacterDict)
	for _, p := range pd.Keys() {
		for _, c := range pd[p] {
			cd[c] = append(cd[c], p)
		}
	}
	return cd
}

// BuildRareSubset filters every pronunciation's characters down to the ones
// missing from common, keeping their relative order.
func BuildRareSubset(pd PronunciationDict, common CommonCharSet) RareSubsetDict {
	rd := make(RareSubsetDict, len(pd))
	for p, chars := range pd {
		rare := make([]string, 0, len(chars))
		for _, c := range chars {
			if !common.Contains(c) {
				rare = append(rare, c)
			}
		}
		rd[p] = rare
	}
	return rd
}

// Dictionaries bundles the read-only data the converter works from.
// It is built once and never mutated afterwards.
type Dictionaries struct {
	Pronunciations PronunciationDict
	Characters     CharacterDict
	Rare           RareSubsetDict
	Common         CommonCharSet
}

// New derives the reverse index and the rare subset from pd.
// A nil pd or common is treated as empty.
func New(pd PronunciationDict, common CommonCharSet) *Dictionaries {
	if pd == nil {
		pd = make(PronunciationDict)
	}
	if common == nil {
		common = make(CommonCharSet)
	}
	return &Dictionaries{
		Pronunciations: pd,
		Characters:     BuildCharacterDict(pd),
		Rare:           BuildRareSubset(pd, common),
		Common:         common,
	}
}
