package vectorindex

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	tableChunks = "chunks"
	tableMeta   = "meta"
)

// openDB opens the SQLite-backed chunk store and creates its schema,
// grounded on the teacher's memory-core/store.EnsureSchema.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open %q: %w", path, err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + tableMeta + ` (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tableChunks + ` (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL DEFAULT '',
			source_iep_id TEXT NOT NULL DEFAULT '',
			section_key TEXT NOT NULL DEFAULT '',
			disability_category TEXT NOT NULL DEFAULT '',
			grade_band TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			text TEXT NOT NULL,
			hash TEXT NOT NULL,
			model TEXT NOT NULL,
			embedding TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_student ON ` + tableChunks + `(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_kind ON ` + tableChunks + `(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_section ON ` + tableChunks + `(section_key)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("vectorindex: exec schema: %w", err)
		}
	}
	return nil
}
