package db

import "time"

// Source is a provenance record for converted text: a file, a URL or a
// one-off string given on the command line.
type Source struct {
	ID                int64
	SourceType        string
	Title             string
	URL               string
	LastProcessedLine int
	AddedAt           time.Time
}

// Conversion is one converted line of a source.
type Conversion struct {
	ID        int64
	SourceID  int64
	LineIndex int
	Mode      string
	Input     string
	Output    string
	CreatedAt time.Time
}
