//go:build postgres

package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testJournal *PostgresJournal

// TestMain uses DATABASE_URL when set, otherwise starts a PostgreSQL
// container with testcontainers-go.
func TestMain(m *testing.M) {
	ctx := context.Background()

	var container testcontainers.Container
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		pg, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("dhcpmigrate_test"),
			tcpostgres.WithUsername("dhcpmigrate"),
			tcpostgres.WithPassword("dhcpmigrate"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}
		container = pg

		connStr, err = pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
			_ = pg.Terminate(ctx)
			os.Exit(1)
		}
	}

	j, err := NewPostgresJournal(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		if container != nil {
			_ = container.Terminate(ctx)
		}
		os.Exit(1)
	}
	testJournal = j

	code := m.Run()

	_ = j.Close()
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func resetRuns(t *testing.T) {
	t.Helper()
	if _, err := testJournal.pool.Exec(context.Background(), "DELETE FROM migration_runs"); err != nil {
		t.Fatalf("failed to reset migration_runs: %v", err)
	}
}

func TestPostgresJournal_RecordAndGet(t *testing.T) {
	resetRuns(t)
	ctx := context.Background()

	run := sampleRun(CommandConvert)
	run.ID = uuid.New().String()
	run.Output = "/tmp/out.xml"
	if err := testJournal.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := testJournal.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Output != "/tmp/out.xml" || got.Stats == nil || got.Stats.Skipped != 1 {
		t.Errorf("run = %+v", got)
	}
	if d := got.StartedAt.Sub(run.StartedAt); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("StartedAt drifted by %v", d)
	}

	if _, err := testJournal.Get(ctx, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPostgresJournal_List(t *testing.T) {
	resetRuns(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, cmd := range []string{CommandScan, CommandConvert, CommandConvert} {
		r := sampleRun(cmd)
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			r.Error = "Existing reservations found (3 IPs) and --fail-if-existing is set. Aborting."
		}
		if err := testJournal.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		opts      ListOptions
		wantTotal int
		wantLen   int
	}{
		{"all", ListOptions{}, 3, 3},
		{"by command", ListOptions{Command: CommandConvert}, 2, 2},
		{"failed only", ListOptions{Outcome: OutcomeFailed}, 1, 1},
		{"paged", ListOptions{Limit: 1, Offset: 1}, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, total, err := testJournal.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.wantTotal || len(runs) != tt.wantLen {
				t.Errorf("total=%d len=%d, want %d/%d", total, len(runs), tt.wantTotal, tt.wantLen)
			}
		})
	}

	runs, _, _ := testJournal.List(ctx, ListOptions{})
	if runs[0].Outcome != OutcomeFailed {
		t.Errorf("newest run outcome = %q, want failed", runs[0].Outcome)
	}
}
