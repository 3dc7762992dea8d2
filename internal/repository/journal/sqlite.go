package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure-Go SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// Repository defines persistence operations for finished runs.
type Repository interface {
	Record(ctx context.Context, run *alarm.Run) error
	Recent(ctx context.Context, limit int) ([]*alarm.Run, error)
	Get(ctx context.Context, id string) (*alarm.Run, error)
}

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("run not found")
	// errRunRequired is returned when recording a nil run.
	errRunRequired = errors.New("run must be provided")
)

// schema is applied on open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS alarm_runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	last_tick   INTEGER NOT NULL,
	max_ticks   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS alarm_runs_finished_at ON alarm_runs (finished_at);
`

// SQLiteRepository stores runs in a SQLite database file.
type SQLiteRepository struct {
	// db is the connection pool; SQLite allows a single writer.
	db *sql.DB
}

// Open creates (if needed) and migrates the journal at path.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate journal: %w", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record stores a finished run. Recording the same ID twice keeps the latest values.
func (r *SQLiteRepository) Record(ctx context.Context, run *alarm.Run) error {
	if run == nil {
		return errRunRequired
	}

	const query = `
INSERT INTO alarm_runs (id, started_at, finished_at, outcome, last_tick, max_ticks)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	started_at = excluded.started_at,
	finished_at = excluded.finished_at,
	outcome = excluded.outcome,
	last_tick = excluded.last_tick,
	max_ticks = excluded.max_ticks`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		string(run.Outcome),
		run.LastTick,
		run.MaxTicks,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	return nil
}

// Recent returns up to limit runs, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]*alarm.Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	const query = `
SELECT id, started_at, finished_at, outcome, last_tick, max_ticks
FROM alarm_runs
ORDER BY finished_at DESC, id
LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	runs := make([]*alarm.Run, 0, limit)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Get returns a single run by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*alarm.Run, error) {
	const query = `
SELECT id, started_at, finished_at, outcome, last_tick, max_ticks
FROM alarm_runs
WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return run, err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun converts one row into a domain Run.
func scanRun(row rowScanner) (*alarm.Run, error) {
	var (
		run        alarm.Run
		startedAt  int64
		finishedAt int64
		outcome    string
	)

	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &outcome, &run.LastTick, &run.MaxTicks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan run: %w", err)
	}

	state, err := alarm.ParseTimerState(outcome)
	if err != nil {
		return nil, fmt.Errorf("decode run %s: %w", run.ID, err)
	}

	run.StartedAt = time.UnixMilli(startedAt)
	run.FinishedAt = time.UnixMilli(finishedAt)
	run.Outcome = state

	return &run, nil
}
