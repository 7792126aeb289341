package converter

import (
	"reflect"
	"sync"
	"testing"
	"unicode/utf8"
)

func newFixtureConverter(pick Picker) *Converter {
	return New(NewSelector(fixtureDicts(), pick), nil)
}

func TestTransformEmpty(t *testing.T) {
	c := newFixtureConverter(nil)
	for _, mode := range []Mode{ModeRareOnly, ModeRareAndCommon, ModeCommonOnly} {
		if got := c.Transform("", mode); got != "" {
			t.Errorf("Transform(\"\", %s) = %q", mode, got)
		}
	}
}

func TestTransformNonChinese(t *testing.T) {
	c := newFixtureConverter(nil)
	text := "hello world 123!"
	for _, mode := range []Mode{ModeRareOnly, ModeRareAndCommon, ModeCommonOnly, "bogus"} {
		if got := c.Transform(text, mode); got != text {
			t.Errorf("Transform(%q, %s) = %q", text, mode, got)
		}
	}
}

func TestTransformMixed(t *testing.T) {
	c := newFixtureConverter(nil)
	// 瘸 (qué) has no homophone, everything else is not Chinese.
	text := "114514\n~瘸！1919810"
	for _, mode := range []Mode{ModeRareOnly, ModeRareAndCommon, ModeCommonOnly} {
		if got := c.Transform(text, mode); got != text {
			t.Errorf("Transform(%q, %s) = %q", text, mode, got)
		}
	}
}

func TestTransformSubstitutes(t *testing.T) {
	c := newFixtureConverter(func(cands []string) string { return cands[len(cands)-1] })
	got := c.Transform("且 好!", ModeCommonOnly)
	if want := "𠀃 𤫧!"; got != want {
		t.Errorf("Transform = %q; want %q", got, want)
	}
}

func TestTransformKeepsShape(t *testing.T) {
	c := newFixtureConverter(nil)
	text := "测量 A 汉字，且好。\t瘸"
	for i := 0; i < 200; i++ {
		got := c.Transform(text, ModeRareOnly)
		if utf8.RuneCountInString(got) != utf8.RuneCountInString(text) {
			t.Fatalf("rune count changed: %q -> %q", text, got)
		}
		gr, tr := []rune(got), []rune(text)
		for j := range tr {
			if !IsChinese(string(tr[j])) && gr[j] != tr[j] {
				t.Fatalf("non-Chinese rune %q at %d changed to %q", tr[j], j, gr[j])
			}
			if IsChinese(string(tr[j])) && !IsChinese(string(gr[j])) {
				t.Fatalf("Chinese rune %q at %d replaced by non-Chinese %q", tr[j], j, gr[j])
			}
		}
	}
}

type stubAnnotator []Token

func (s stubAnnotator) Annotate(string) []Token { return s }

func TestTransformUsesAnnotatorPronunciation(t *testing.T) {
	sel := NewSelector(fixtureDicts(), firstPicker)
	c := New(sel, stubAnnotator{{Text: "测", Pronunciation: "cè"}, {Text: "!"}})
	if got := c.Transform("测!", ModeCommonOnly); got != "侧!" {
		t.Errorf("Transform = %q; want 侧!", got)
	}
}

func TestTransformRejectsIncompleteAnnotation(t *testing.T) {
	sel := NewSelector(fixtureDicts(), firstPicker)
	// The annotator lost the trailing "!".
	c := New(sel, stubAnnotator{{Text: "测", Pronunciation: "cè"}})
	if got := c.Transform("测!", ModeCommonOnly); got != "测!" {
		t.Errorf("Transform = %q; want input back unchanged", got)
	}
}

func TestTransformConcurrent(t *testing.T) {
	c := newFixtureConverter(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := c.Transform("瘸!", ModeRareOnly); got != "瘸!" {
					t.Errorf("Transform = %q", got)
					return
				}
				c.Transform("测汉好", ModeRareAndCommon)
			}
		}()
	}
	wg.Wait()
}

func TestSegment(t *testing.T) {
	tokens := Segment("ab测 汉\n", func(r rune) string { return string(r) + "!" })
	want := []Token{
		{Text: "ab"},
		{Text: "测", Pronunciation: "测!"},
		{Text: " "},
		{Text: "汉", Pronunciation: "汉!"},
		{Text: "\n"},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Segment = %+v; want %+v", tokens, want)
	}
	if got := Segment("", nil); len(got) != 0 {
		t.Errorf("Segment(\"\") = %v", got)
	}
}

func TestDictAnnotator(t *testing.T) {
	a := NewDictAnnotator(fixtureDicts().Characters)
	got := a.Annotate("瘸猫x")
	want := []Token{
		{Text: "瘸", Pronunciation: "qué"},
		{Text: "猫", Pronunciation: ""},
		{Text: "x"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Annotate = %+v; want %+v", got, want)
	}
}
