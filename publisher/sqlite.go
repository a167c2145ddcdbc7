package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gtkm_synth/gtkm"
)

const createExamplesTable = `
CREATE TABLE IF NOT EXISTS examples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	persona TEXT NOT NULL DEFAULT '',
	instruction TEXT NOT NULL,
	response TEXT NOT NULL,
	skip_prompt_formatting INTEGER NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLitePublisher inserts examples into an "examples" table.
type SQLitePublisher struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLitePublisher, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createExamplesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create examples table: %w", err)
	}
	return &SQLitePublisher{db: db}, nil
}

func (p *SQLitePublisher) Publish(ctx context.Context, ex gtkm.Example) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO examples (category, persona, instruction, response, skip_prompt_formatting, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ex.Category, ex.Persona, ex.Instruction, ex.Response, ex.SkipPromptFormatting,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert example: %w", err)
	}
	return nil
}

// Count returns the number of stored examples.
func (p *SQLitePublisher) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM examples`).Scan(&n)
	return n, err
}

func (p *SQLitePublisher) Close() error {
	return p.db.Close()
}
