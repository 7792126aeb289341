package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragmas: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies InitDB creates every table with the
// columns the store relies on, and that running it twice is harmless.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	want := map[string][]string{
		"readings":        {"pronunciation", "seq", "hanzi"},
		"sources":         {"source_type", "title", "url"},
		"conversions":     {"source_id", "line_index", "mode", "input", "output", "created_at"},
		"source_progress": {"source_id", "mode", "last_processed_line"},
	}
	for table, cols := range want {
		got := tableColumns(t, dbConn, table)
		for _, c := range cols {
			if !got[c] {
				t.Errorf("expected column %s in %s, got %v", c, table, got)
			}
		}
	}
}
