// Package unihan builds the pronunciation dictionary from the Unicode Han
// database readings file (Unihan_Readings.txt).
package unihan

import (
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
)

// MandarinField is the Unihan field holding the customary Mandarin reading.
const MandarinField = "kMandarin"

// Stats describes what a parse consumed.
type Stats struct {
	Lines     int // non-comment, non-blank lines
	Mandarin  int // kMandarin rows seen
	Skipped   int // kMandarin rows with an unparsable codepoint
	Ambiguous int // rows dropped because a new key had a space-separated reading
}

// ParseReadings builds a pronunciation dictionary from Unihan readings rows
// of the form "U+XXXX<TAB>field<TAB>value".
//
// A pronunciation key is only created by a row whose reading has no space.
// Once the key exists, later rows for it are appended whatever their reading
// looks like. Keys are only lower-cased; trimming and NFC happen at lookup
// time (dictionary.NormalizePronunciation).
func ParseReadings(r io.Reader) (dictionary.PronunciationDict, Stats, error) {
	pd := make(dictionary.PronunciationDict)
	var st Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		st.Lines++

		parts := strings.Split(line, "\t")
		if len(parts) < 3 || parts[1] != MandarinField {
			continue
		}
		st.Mandarin++

		char, ok := decodeCodepoint(parts[0])
		if !ok {
			st.Skipped++
			continue
		}
		// Keys never contain a space, so a value with one (even a stray
		// trailing space) always reaches the drop below.
		value := strings.TrimRight(parts[2], "\r")
		pron := strings.ToLower(value)

		if _, exists := pd[pron]; exists {
			pd.Add(pron, char)
			continue
		}
		if strings.Contains(value, " ") {
			st.Ambiguous++
			continue
		}
		pd.Add(pron, char)
	}
	if err := sc.Err(); err != nil {
		return pd, st, err
	}
	return pd, st, nil
}

// decodeCodepoint turns "U+6D4B" into "测". The first two bytes are the prefix.
func decodeCodepoint(field string) (string, bool) {
	if len(field) <= 2 {
		return "", false
	}
	v, err := strconv.ParseUint(field[2:], 16, 32)
	if err != nil || v > 0x10FFFF {
		return "", false
	}
	return string(rune(v)), true
}

// LoadReadings parses the readings file at path. Any failure is logged and an
// empty dictionary returned, so callers end up with a converter that leaves
// every character unchanged instead of crashing.
func LoadReadings(path string, logger *log.Logger) dictionary.PronunciationDict {
	if logger == nil {
		logger = log.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Printf("Error reading Unihan readings %s: %v", path, err)
		return make(dictionary.PronunciationDict)
	}
	defer f.Close()

	pd, st, err := ParseReadings(f)
	if err != nil {
		logger.Printf("Error reading Unihan readings %s: %v", path, err)
		return make(dictionary.PronunciationDict)
	}
	logger.Printf("Parsed %d kMandarin rows into %d pronunciations (%d bad codepoints, %d ambiguous readings dropped)",
		st.Mandarin, len(pd), st.Skipped, st.Ambiguous)
	return pd
}
