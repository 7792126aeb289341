package pinyin

import (
	"strings"
	"testing"

	"github.com/Hans774882968/rare-chars-conversion/pkg/converter"
	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
)

func TestReading(t *testing.T) {
	a := NewAnnotator()
	tests := []struct {
		in   rune
		want string
	}{
		{'测', "cè"},
		{'瘸', "qué"},
		{'汉', "hàn"},
		{'a', ""},
	}
	for _, tt := range tests {
		if got := a.Reading(tt.in); got != tt.want {
			t.Errorf("Reading(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnnotateCoversInput(t *testing.T) {
	a := NewAnnotator()
	text := "114514\n~瘸！1919810 测试 abc"
	tokens := a.Annotate(text)

	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
		if converter.IsChinese(tok.Text) {
			if tok.Pronunciation == "" {
				t.Errorf("no reading for %q", tok.Text)
			}
		} else if tok.Pronunciation != "" {
			t.Errorf("non-Chinese run %q got reading %q", tok.Text, tok.Pronunciation)
		}
	}
	if b.String() != text {
		t.Fatalf("tokens do not cover input: %q", b.String())
	}
	// "114514\n~", "瘸", "！1919810 ", "测", "试", " abc"
	if len(tokens) != 6 {
		t.Errorf("expected 6 tokens, got %d: %+v", len(tokens), tokens)
	}
}

func TestTransformWithPinyinAnnotator(t *testing.T) {
	pd := dictionary.PronunciationDict{
		"qué": {"瘸"},
		"cè":  {"测", "𫭮"},
	}
	sel := converter.NewSelector(dictionary.New(pd, dictionary.NewCommonCharSet("测")), nil)
	c := converter.New(sel, NewAnnotator())

	if got := c.Transform("114514\n~瘸！1919810", converter.ModeRareOnly); got != "114514\n~瘸！1919810" {
		t.Errorf("got %q", got)
	}
	if got := c.Transform("测!", converter.ModeRareOnly); got != "𫭮!" {
		t.Errorf("got %q; want 𫭮!", got)
	}
}
