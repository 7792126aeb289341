// Package pinyin annotates Chinese text with tone-marked pinyin using the
// go-pinyin data set.
package pinyin

import (
	gopinyin "github.com/mozillazg/go-pinyin"

	"github.com/Hans774882968/rare-chars-conversion/pkg/converter"
	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
)

// Annotator implements converter.Annotator on top of go-pinyin.
// Each character gets its most common reading; go-pinyin has no phrase
// context, so polyphones are not disambiguated.
type Annotator struct {
	args gopinyin.Args
}

// NewAnnotator returns an annotator producing tone-marked readings.
func NewAnnotator() *Annotator {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.Tone
	args.Heteronym = false
	args.Fallback = func(r rune, a gopinyin.Args) []string { return nil }
	return &Annotator{args: args}
}

// Reading returns the normalized reading of r, or "" if go-pinyin has none.
func (a *Annotator) Reading(r rune) string {
	readings := gopinyin.SinglePinyin(r, a.args)
	if len(readings) == 0 {
		return ""
	}
	return dictionary.NormalizePronunciation(readings[0])
}

// Annotate implements converter.Annotator.
func (a *Annotator) Annotate(text string) []converter.Token {
	return converter.Segment(text, a.Reading)
}
