package dictionary

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// artifact is the on-disk wrapper of an exported dictionary.
type artifact struct {
	Version        int               `json:"version"`
	Pronunciations PronunciationDict `json:"pronunciations"`
}

const artifactVersion = 1

// WriteArtifact writes pd as gzip-compressed JSON.
// encoding/json sorts map keys, so the same dictionary always produces the same bytes.
func WriteArtifact(w io.Writer, pd PronunciationDict) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(artifact{Version: artifactVersion, Pronunciations: pd}); err != nil {
		zw.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	return zw.Close()
}

// ReadArtifact reads a dictionary written by WriteArtifact. Plain (not
// gzipped) JSON is accepted too, either wrapped or as a bare
// pronunciation → characters object.
func ReadArtifact(r io.Reader) (PronunciationDict, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open gzip artifact: %w", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("decompress artifact: %w", err)
		}
	}

	// Try the wrapped form first { "pronunciations": {...} }
	var wrapped artifact
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Pronunciations != nil {
		return wrapped.Pronunciations, nil
	}

	var pd PronunciationDict
	if err := json.Unmarshal(raw, &pd); err != nil {
		return nil, fmt.Errorf("failed to parse artifact as wrapper or object: %w", err)
	}
	if pd == nil {
		pd = make(PronunciationDict)
	}
	return pd, nil
}

// SaveArtifact writes pd to path.
func SaveArtifact(path string, pd PronunciationDict) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteArtifact(f, pd); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadArtifact reads the dictionary stored at path.
func LoadArtifact(path string) (PronunciationDict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadArtifact(f)
}
