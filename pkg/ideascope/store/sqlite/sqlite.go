package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/ideascope/pkg/ideascope/executor"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/store"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS topics (
	name TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ideas (
	topic TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	problem TEXT,
	existing_methods TEXT,
	motivation TEXT,
	proposed_method TEXT,
	experiment_plan TEXT,
	PRIMARY KEY(topic, position),
	FOREIGN KEY(topic) REFERENCES topics(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	topic TEXT,
	threshold REAL,
	input_count INTEGER NOT NULL DEFAULT 0,
	output_count INTEGER NOT NULL DEFAULT 0,
	note TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, created_at);

CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	exit_code INTEGER NOT NULL,
	log_path TEXT,
	duration_ms INTEGER NOT NULL,
	timed_out INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveIdeas replaces the stored snapshot for topic, preserving order
func (s *sqliteStore) SaveIdeas(ctx context.Context, topic string, ideas []idea.Idea) error {
	if topic == "" {
		return fmt.Errorf("save ideas: empty topic: %w", internalerr.ErrInvalidInput)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO topics (name, saved_at) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET saved_at=excluded.saved_at;
`, topic, time.Now().UTC().Format(timeLayout)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ideas WHERE topic=?`, topic); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO ideas (topic, position, title, problem, existing_methods, motivation, proposed_method, experiment_plan)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, it := range ideas {
		r := it.Record
		if _, err := stmt.ExecContext(ctx, topic, i, it.Title,
			r.Problem, r.ExistingMethods, r.Motivation, r.ProposedMethod, r.ExperimentPlan); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadIdeas returns the snapshot for topic in saved order
func (s *sqliteStore) LoadIdeas(ctx context.Context, topic string) ([]idea.Idea, error) {
	var saved string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM topics WHERE name=?`, topic).Scan(&saved)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("topic %q: %w", topic, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT title, problem, existing_methods, motivation, proposed_method, experiment_plan
FROM ideas WHERE topic=? ORDER BY position`, topic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []idea.Idea{}
	for rows.Next() {
		var it idea.Idea
		var p, em, mo, pm, ep sql.NullString
		if err := rows.Scan(&it.Title, &p, &em, &mo, &pm, &ep); err != nil {
			return nil, err
		}
		it.Record = idea.Record{
			Problem:         p.String,
			ExistingMethods: em.String,
			Motivation:      mo.String,
			ProposedMethod:  pm.String,
			ExperimentPlan:  ep.String,
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Topics lists stored topics alphabetically
func (s *sqliteStore) Topics(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM topics ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// RecordRun inserts or updates a run row. A missing ID or timestamp is filled in.
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	if r.Kind == "" {
		return fmt.Errorf("record run: empty kind: %w", internalerr.ErrInvalidInput)
	}
	if r.ID == "" {
		r.ID = store.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, kind, topic, threshold, input_count, output_count, note, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind=excluded.kind,
	topic=excluded.topic,
	threshold=excluded.threshold,
	input_count=excluded.input_count,
	output_count=excluded.output_count,
	note=excluded.note;
`, r.ID, r.Kind, r.Topic, r.Threshold, r.Input, r.Output, r.Note, r.CreatedAt.UTC().Format(timeLayout))
	return err
}

const runColumns = `id, kind, topic, threshold, input_count, output_count, note, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var r store.Run
	var topic, note sql.NullString
	var threshold sql.NullFloat64
	var created string
	if err := sc.Scan(&r.ID, &r.Kind, &topic, &threshold, &r.Input, &r.Output, &note, &created); err != nil {
		return store.Run{}, err
	}
	r.Topic = topic.String
	r.Note = note.String
	r.Threshold = threshold.Float64
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the newest runs first. An empty kind matches every kind.
func (s *sqliteStore) ListRuns(ctx context.Context, kind string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind=?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordExecution stores one script result under runID
func (s *sqliteStore) RecordExecution(ctx context.Context, runID string, r executor.Result) error {
	if r.ID == "" {
		r.ID = store.NewID()
	}
	timedOut := 0
	if r.TimedOut {
		timedOut = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO executions (id, run_id, name, exit_code, log_path, duration_ms, timed_out, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	exit_code=excluded.exit_code,
	log_path=excluded.log_path,
	duration_ms=excluded.duration_ms,
	timed_out=excluded.timed_out,
	error=excluded.error;
`, r.ID, runID, r.Name, r.ExitCode, r.LogPath, r.Duration.Milliseconds(), timedOut, r.Err)
	return err
}

// ListExecutions returns the results recorded for runID in insertion order
func (s *sqliteStore) ListExecutions(ctx context.Context, runID string) ([]executor.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, exit_code, log_path, duration_ms, timed_out, error
FROM executions WHERE run_id=? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []executor.Result
	for rows.Next() {
		var r executor.Result
		var logPath, errText sql.NullString
		var ms int64
		var timedOut int
		if err := rows.Scan(&r.ID, &r.Name, &r.ExitCode, &logPath, &ms, &timedOut, &errText); err != nil {
			return nil, err
		}
		r.LogPath = logPath.String
		r.Err = errText.String
		r.Duration = time.Duration(ms) * time.Millisecond
		r.TimedOut = timedOut != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
