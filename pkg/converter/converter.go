package converter

import (
	"strings"
	"unicode"
)

// Token is one unit of annotated text: a single Chinese character with its
// pronunciation, or a maximal run of other characters with none.
type Token struct {
	Text          string
	Pronunciation string
}

// Annotator supplies pronunciations. The returned tokens must cover text
// in order, with no gaps or overlaps.
type Annotator interface {
	Annotate(text string) []Token
}

// Converter rewrites whole strings.
type Converter struct {
	sel *Selector
	ann Annotator
}

// New creates a Converter. A nil annotator falls back to a DictAnnotator over
// the selector's own dictionaries.
func New(sel *Selector, ann Annotator) *Converter {
	if ann == nil {
		ann = NewDictAnnotator(sel.Dictionaries().Characters)
	}
	return &Converter{sel: sel, ann: ann}
}

// Selector returns the selector used for single characters.
func (c *Converter) Selector() *Selector { return c.sel }

// Transform replaces every Chinese character of text according to mode and
// copies everything else verbatim.
func (c *Converter) Transform(text string, mode Mode) string {
	if text == "" {
		return ""
	}
	tokens := c.ann.Annotate(text)

	var orig, out strings.Builder
	out.Grow(len(text))
	for _, tok := range tokens {
		orig.WriteString(tok.Text)
		if IsChinese(tok.Text) {
			out.WriteString(c.sel.Select(tok.Text, tok.Pronunciation, mode))
		} else {
			out.WriteString(tok.Text)
		}
	}
	// An annotator that drops or reorders text would corrupt the output.
	if orig.String() != text {
		return text
	}
	return out.String()
}

// Segment splits text into tokens: one per Han rune, with reading(r) as its
// pronunciation, and one per maximal run of anything else.
func Segment(text string, reading func(r rune) string) []Token {
	var tokens []Token
	runStart := -1
	for i, r := range text {
		if !unicode.Is(unicode.Han, r) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			tokens = append(tokens, Token{Text: text[runStart:i]})
			runStart = -1
		}
		tokens = append(tokens, Token{Text: string(r), Pronunciation: reading(r)})
	}
	if runStart >= 0 {
		tokens = append(tokens, Token{Text: text[runStart:]})
	}
	return tokens
}
