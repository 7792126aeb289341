package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Hans774882968/rare-chars-conversion/pkg/dictionary"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// ReplaceReadings swaps the stored pronunciation dictionary for pd in a single
// transaction and returns the number of rows written. Character order within
// a pronunciation is kept through the seq column.
func ReplaceReadings(conn *sql.DB, pd dictionary.PronunciationDict) (int, error) {
	tx, err := conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if _, err := tx.Exec(`DELETE FROM readings`); err != nil {
		return 0, fmt.Errorf("clear readings: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO readings (pronunciation, seq, hanzi) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, p := range pd.Keys() {
		for seq, c := range pd[p] {
			if _, err := stmt.Exec(p, seq, c); err != nil {
				return n, fmt.Errorf("insert reading %s/%s: %w", p, c, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit readings: %w", err)
	}
	return n, nil
}

// LoadReadings reads the stored pronunciation dictionary.
func LoadReadings(db DBExecutor) (dictionary.PronunciationDict, error) {
	rows, err := db.Query(`SELECT pronunciation, hanzi FROM readings ORDER BY pronunciation, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pd := make(dictionary.PronunciationDict)
	for rows.Next() {
		var p, c string
		if err := rows.Scan(&p, &c); err != nil {
			return nil, err
		}
		pd.Add(p, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pd, nil
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, sourceType, title, url string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.QueryRow(
			`SELECT id FROM sources WHERE source_type = ? AND title = ? AND url = ?`,
			trimmedSourceType, title, url,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, url) VALUES (?, ?, ?)`,
			trimmedSourceType, title, url,
		)
		if err != nil {
			// If another concurrent transaction inserted the same source, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

// RecordConversion stores a converted line. Converting the same line of a
// source again in the same mode overwrites the previous output.
func RecordConversion(db DBExecutor, c Conversion) (int64, error) {
	if c.SourceID <= 0 {
		return 0, fmt.Errorf("sourceID must be positive")
	}
	if c.LineIndex < 0 {
		return 0, fmt.Errorf("lineIndex must not be negative, got %d", c.LineIndex)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var id int64
	err := db.QueryRow(`INSERT INTO conversions (source_id, line_index, mode, input, output, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_id, line_index, mode) DO UPDATE SET
	  input = excluded.input,
	  output = excluded.output,
	  created_at = excluded.created_at
	RETURNING id`, c.SourceID, c.LineIndex, c.Mode, c.Input, c.Output, c.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert conversion: %w", err)
	}
	return id, nil
}

// GetConversionsBySource returns the converted lines of a source in line order.
func GetConversionsBySource(db DBExecutor, sourceID int64) ([]Conversion, error) {
	rows, err := db.Query(`SELECT id, source_id, line_index, mode, input, output, created_at
		FROM conversions WHERE source_id = ? ORDER BY line_index, mode`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Conversion
	for rows.Next() {
		var c Conversion
		if err := rows.Scan(&c.ID, &c.SourceID, &c.LineIndex, &c.Mode, &c.Input, &c.Output, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSourceProgress returns the last processed line index of a source in
// mode (-1 if none). Each mode keeps its own checkpoint.
func GetSourceProgress(db DBExecutor, sourceID int64, mode string) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_line FROM source_progress WHERE source_id = ? AND mode = ?",
		sourceID, mode).Scan(&index)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateSourceProgress sets the last processed line index of a source in mode.
func UpdateSourceProgress(db DBExecutor, sourceID int64, mode string, index int) error {
	_, err := db.Exec(`INSERT INTO source_progress (source_id, mode, last_processed_line) VALUES (?, ?, ?)
	ON CONFLICT(source_id, mode) DO UPDATE SET last_processed_line = excluded.last_processed_line`,
		sourceID, mode, index)
	return err
}
