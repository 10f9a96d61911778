package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robalyx/todbot/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FileName is the database file written to the output directory.
const FileName = "prompts.db"

// Exporter handles exporting prompts to a standalone SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes the records to prompts.db, replacing any earlier export.
func (e *Exporter) Export(records []*types.Record) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.ExecuteScript(conn, `
		CREATE TABLE prompts (
			id INTEGER PRIMARY KEY,
			category TEXT NOT NULL,
			text TEXT NOT NULL,
			nsfw INTEGER NOT NULL,
			author TEXT NOT NULL
		);
		CREATE INDEX idx_prompts_category_nsfw ON prompts (category, nsfw);
	`, nil)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Insert records in batches
	const batchSize = 1000
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		if err := insertBatch(conn, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// insertBatch writes one batch of records inside a transaction.
func insertBatch(conn *sqlite.Conn, records []*types.Record) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, record := range records {
		var nsfw int64
		if record.NSFW {
			nsfw = 1
		}

		err = sqlitex.Execute(conn,
			"INSERT INTO prompts (id, category, text, nsfw, author) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{record.ID, record.Category, record.Text, nsfw, record.Author},
			})
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return nil
}
