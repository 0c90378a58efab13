package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)

	"github.com/spektr-org/claimlens/engine"
)

// runsTable records the run that produced the database.
const runsTable = `
CREATE TABLE runs (
    run_id       TEXT PRIMARY KEY,
    today        TEXT NOT NULL,
    records      INTEGER NOT NULL DEFAULT 0,
    generated_at DATETIME NOT NULL
);`

// SQLiteExporter writes every bundle table into a single SQLite file.
// The file is recreated on each export; it holds exactly one run.
type SQLiteExporter struct {
	Path string
}

// Export implements Exporter.
func (e *SQLiteExporter) Export(ctx context.Context, b Bundle) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(e.Path), err)
	}
	if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove %s: %w", e.Path, err)
	}

	db, err := sql.Open("sqlite", e.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", e.Path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, runsTable); err != nil {
		return nil, fmt.Errorf("create runs: %w", err)
	}
	today := ""
	records := 0
	if b.Result != nil {
		today = b.Result.Today.Format(engine.DateLayout)
		records = b.Result.Records
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, today, records, generated_at) VALUES (?, ?, ?, ?)`,
		b.RunID, today, records, b.GeneratedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	arts := make([]Artifact, 0, len(b.Tables))
	for _, t := range b.Tables {
		if err := writeTable(ctx, tx, t); err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Title, err)
		}
		arts = append(arts, Artifact{Name: t.Title, Format: FormatSQLite, Path: e.Path, Rows: len(t.Rows)})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return arts, nil
}

func writeTable(ctx context.Context, tx *sql.Tx, t *engine.TableData) error {
	if len(t.Columns) == 0 {
		// Nothing to describe; keep an empty marker table so readers can rely on it.
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (row_id INTEGER PRIMARY KEY)`, quoteIdent(t.Title)))
		return err
	}

	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quoteIdent(c.Key)
		defs[i] = names[i] + " " + sqliteType(c)
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(t.Title), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(t.Title), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			args[i] = cellValue(c, row, i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}

func sqliteType(c engine.Column) string {
	if c.Type == "number" {
		return "REAL"
	}
	return "TEXT"
}

// cellValue maps an empty cell to NULL and numeric cells to float64.
func cellValue(c engine.Column, row []string, i int) any {
	if i >= len(row) || row[i] == "" {
		return nil
	}
	if c.Type == "number" {
		if f, err := strconv.ParseFloat(row[i], 64); err == nil {
			return f
		}
	}
	return row[i]
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
