//go:build postgres

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhcpmigrate/internal/domain"
)

// PostgresJournal is a PostgreSQL-backed Journal.
type PostgresJournal struct {
	pool    *pgxpool.Pool
	ownPool bool // true if we created the pool (and should close it)
}

// NewPostgresJournal connects to connStr with its own pool and applies the
// journal schema.
func NewPostgresJournal(ctx context.Context, connStr string) (*PostgresJournal, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	j := &PostgresJournal{pool: pool, ownPool: true}
	if err := j.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

// NewPostgresJournalFromPool uses an existing pool. The schema is applied
// but the pool is left open on Close.
func NewPostgresJournalFromPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresJournal, error) {
	j := &PostgresJournal{pool: pool}
	if err := j.migrate(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *PostgresJournal) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return err
	}
	all, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	for _, m := range pending(all, applied) {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.name, err)
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes the pool if the journal created it.
func (s *PostgresJournal) Close() error {
	if s.ownPool {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresJournal) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return nil
	}
	prepare(run)

	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	var stats *string
	if run.Stats != nil {
		b, err := json.Marshal(run.Stats)
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		stats = nullStr(string(b))
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO migration_runs (id, started_at, finished_at, command, backend, input, output,
			options, stats, warnings, outcome, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Command, string(run.Backend), run.Input,
		nullStr(run.Output), string(options), stats, run.Warnings, run.Outcome, nullStr(run.Error),
	)
	return err
}

const postgresColumns = "id::text, started_at, finished_at, command, backend, input, output, options::text, stats::text, warnings, outcome, error"

func (s *PostgresJournal) List(ctx context.Context, opts ListOptions) ([]*Run, int, error) {
	where := "TRUE"
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where += " AND " + clause + " $" + strconv.Itoa(len(args))
	}
	if opts.Command != "" {
		add("command =", opts.Command)
	}
	if opts.Backend != "" {
		add("backend =", string(opts.Backend))
	}
	if opts.Outcome != "" {
		add("outcome =", opts.Outcome)
	}
	if opts.Since != nil {
		add("started_at >=", *opts.Since)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM migration_runs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := "SELECT " + postgresColumns + " FROM migration_runs WHERE " + where +
		" ORDER BY started_at DESC LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	args = append(args, clampLimit(opts.Limit), opts.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	return runs, total, rows.Err()
}

func (s *PostgresJournal) Get(ctx context.Context, id string) (*Run, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+postgresColumns+" FROM migration_runs WHERE id::text = $1", id)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func scanPostgresRun(row pgx.Row) (*Run, error) {
	var (
		r                     Run
		backend, options      string
		output, stats, errMsg *string
	)
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Command, &backend, &r.Input, &output,
		&options, &stats, &r.Warnings, &r.Outcome, &errMsg); err != nil {
		return nil, err
	}
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	r.Backend = domain.Backend(backend)
	if output != nil {
		r.Output = *output
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	if err := json.Unmarshal([]byte(options), &r.Options); err != nil {
		return nil, fmt.Errorf("decode options for run %s: %w", r.ID, err)
	}
	if stats != nil && *stats != "" {
		if err := json.Unmarshal([]byte(*stats), &r.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for run %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
