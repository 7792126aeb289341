package dictionary

import (
	"bufio"
	_ "embed"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"
)

// commonCharsFile is the GB 2312 level-1 hanzi list shipped as the default
// common set.
//
//go:embed data/common_chars.txt
var commonCharsFile string

var defaultCommon = sync.OnceValue(func() CommonCharSet {
	s, err := ParseCommonCharSet(strings.NewReader(commonCharsFile))
	if err != nil {
		panic("dictionary: embedded common character list: " + err.Error())
	}
	return s
})

// DefaultCommonCharSet returns the bundled common character set. The map is
// shared and must not be modified.
func DefaultCommonCharSet() CommonCharSet {
	return defaultCommon()
}

// CommonCharSet is the fixed reference set of commonly used characters.
type CommonCharSet map[string]struct{}

// Contains reports whether char is a common character.
func (s CommonCharSet) Contains(char string) bool {
	_, ok := s[char]
	return ok
}

// NewCommonCharSet builds a set from the Han runes found in chars.
func NewCommonCharSet(chars string) CommonCharSet {
	s := make(CommonCharSet)
	for _, r := range chars {
		if unicode.Is(unicode.Han, r) {
			s[string(r)] = struct{}{}
		}
	}
	return s
}

// ParseCommonCharSet reads a character list. Layout is free-form: every Han
// rune in the input is a member, everything else (newlines, commas,
// numbering, '#' comment lines) is ignored.
func ParseCommonCharSet(r io.Reader) (CommonCharSet, error) {
	s := make(CommonCharSet)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		for c := range NewCommonCharSet(line) {
			s[c] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadCommonCharSet reads the character list at path.
func LoadCommonCharSet(path string) (CommonCharSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCommonCharSet(f)
}
