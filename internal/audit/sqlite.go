//go:build sqlite

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-less SQLite driver

	"dhcpmigrate/internal/domain"
)

// sqliteTime is fixed width so started_at sorts lexically.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal is a SQLite-backed Journal.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens dsn and applies the journal schema.
func NewSQLiteJournal(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TEXT NOT NULL)`); err != nil {
		return err
	}
	all, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	applied := map[int]bool{}
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range pending(all, applied) {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name, applied_at) VALUES(?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

func (s *SQLiteJournal) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return nil
	}
	prepare(run)

	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	var stats sql.NullString
	if run.Stats != nil {
		b, err := json.Marshal(run.Stats)
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		stats = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO migration_runs (id, started_at, finished_at, command, backend, input, output, options, stats, warnings, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(sqliteTime),
		run.FinishedAt.UTC().Format(sqliteTime),
		run.Command,
		string(run.Backend),
		run.Input,
		sql.NullString{String: run.Output, Valid: run.Output != ""},
		string(options),
		stats,
		run.Warnings,
		run.Outcome,
		sql.NullString{String: run.Error, Valid: run.Error != ""},
	)
	return err
}

const sqliteColumns = "id, started_at, finished_at, command, backend, input, output, options, stats, warnings, outcome, error"

func (s *SQLiteJournal) List(ctx context.Context, opts ListOptions) ([]*Run, int, error) {
	where := "1=1"
	args := []any{}
	if opts.Command != "" {
		where += " AND command = ?"
		args = append(args, opts.Command)
	}
	if opts.Backend != "" {
		where += " AND backend = ?"
		args = append(args, string(opts.Backend))
	}
	if opts.Outcome != "" {
		where += " AND outcome = ?"
		args = append(args, opts.Outcome)
	}
	if opts.Since != nil {
		where += " AND started_at >= ?"
		args = append(args, opts.Since.UTC().Format(sqliteTime))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migration_runs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + sqliteColumns + " FROM migration_runs WHERE " + where + " ORDER BY started_at DESC LIMIT ? OFFSET ?"
	args = append(args, clampLimit(opts.Limit), opts.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	return runs, total, rows.Err()
}

func (s *SQLiteJournal) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM migration_runs WHERE id = ?", id)
	r, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row rowScanner) (*Run, error) {
	var (
		r                     Run
		started, finished     string
		backend, options      string
		output, stats, errMsg sql.NullString
	)
	if err := row.Scan(&r.ID, &started, &finished, &r.Command, &backend, &r.Input, &output,
		&options, &stats, &r.Warnings, &r.Outcome, &errMsg); err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(sqliteTime, started)
	r.FinishedAt, _ = time.Parse(sqliteTime, finished)
	r.Backend = domain.Backend(backend)
	r.Output = output.String
	r.Error = errMsg.String
	if err := json.Unmarshal([]byte(options), &r.Options); err != nil {
		return nil, fmt.Errorf("decode options for run %s: %w", r.ID, err)
	}
	if stats.Valid && stats.String != "" {
		if err := json.Unmarshal([]byte(stats.String), &r.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for run %s: %w", r.ID, err)
		}
	}
	return &r, nil
}
