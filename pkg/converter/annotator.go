package converter

import "github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"

// DictAnnotator reads pronunciations from the reverse index of the
// pronunciation dictionary. It has no context, so a polyphone gets its first
// listed reading. Useful offline and in tests.
type DictAnnotator struct {
	chars dictionary.CharacterDict
}

// NewDictAnnotator creates an annotator over cd.
func NewDictAnnotator(cd dictionary.CharacterDict) *DictAnnotator {
	return &DictAnnotator{chars: cd}
}

// Annotate implements Annotator.
func (a *DictAnnotator) Annotate(text string) []Token {
	return Segment(text, func(r rune) string {
		if prons := a.chars.Lookup(string(r)); len(prons) > 0 {
			return prons[0]
		}
		return ""
	})
}
