package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vpkplaces/internal/batch"
)

var (
	// ErrRunNotFound reports an unknown run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun reports a run id prefix matching more than one run.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one stored run without its per-file rows.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	InputDir   string          `json:"input_dir"`
	OutputDir  string          `json:"output_dir"`
	Merge      bool            `json:"merge"`
	Format     string          `json:"format"`
	Status     batch.RunStatus `json:"status"`
	Error      string          `json:"error,omitempty"`
	Extracted  int             `json:"extracted"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Filtered   int             `json:"filtered"`
	Written    []string        `json:"written"`
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores summary and its outcomes. Recording the same run id twice
// replaces the earlier record.
func (s *Store) Record(ctx context.Context, summary *batch.Summary) error {
	if summary == nil {
		return errors.New("record run: nil summary")
	}
	ctx = ensureContext(ctx)
	written, err := json.Marshal(nonNil(summary.Written))
	if err != nil {
		return fmt.Errorf("encode written paths: %w", err)
	}

	return defaultBusyPolicy.run(ctx, "record run "+summary.RunID, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", summary.RunID); err != nil {
			return fmt.Errorf("replace run: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			id, started_at, finished_at, input_dir, output_dir, merged, format, status,
			error_message, extracted, skipped, failed, filtered, written
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID,
			formatTime(summary.StartedAt),
			formatTime(summary.FinishedAt),
			summary.InputDir,
			summary.OutputDir,
			boolToInt(summary.Merge),
			summary.Format,
			string(summary.Status),
			nullableString(summary.Error),
			summary.Count(batch.StatusExtracted),
			summary.Count(batch.StatusSkipped),
			summary.Count(batch.StatusFailed),
			summary.Count(batch.StatusFiltered),
			string(written),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_files (
			run_id, position, name, status, reason, places, vectors
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare run files: %w", err)
		}
		defer stmt.Close()
		for i, o := range summary.Outcomes {
			if _, err := stmt.ExecContext(ctx, summary.RunID, i, o.Name, string(o.Status), nullableString(o.Reason), o.Places, o.Vectors); err != nil {
				return fmt.Errorf("insert run file %s: %w", o.Name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit run: %w", err)
		}
		return nil
	})
}

const runColumns = `id, started_at, finished_at, input_dir, output_dir, merged, format, status,
	error_message, extracted, skipped, failed, filtered, written`

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id equals or starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR substr(id, 1, length(?)) = ? ORDER BY id = ? DESC LIMIT 2",
		id, id, id, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case found[0].ID == id, len(found) == 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}
}

// RunFiles returns the per-file outcomes of a run in enumeration order.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]batch.Outcome, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, status, reason, places, vectors FROM run_files WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var out []batch.Outcome
	for rows.Next() {
		var (
			o      batch.Outcome
			status string
			reason sql.NullString
		)
		if err := rows.Scan(&o.Name, &status, &reason, &o.Places, &o.Vectors); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		o.Status = batch.Status(status)
		o.Reason = reason.String
		out = append(out, o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run               Run
		started, finished string
		merged            int
		status            string
		errMsg            sql.NullString
		written           string
	)
	if err := row.Scan(
		&run.ID, &started, &finished, &run.InputDir, &run.OutputDir, &merged, &run.Format, &status,
		&errMsg, &run.Extracted, &run.Skipped, &run.Failed, &run.Filtered, &written,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Merge = merged != 0
	run.Status = batch.RunStatus(status)
	run.Error = errMsg.String
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	if err := json.Unmarshal([]byte(written), &run.Written); err != nil {
		return nil, fmt.Errorf("decode written paths of run %s: %w", run.ID, err)
	}
	return &run, nil
}

// timeLayout has fixed-width fractions so stored values sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
