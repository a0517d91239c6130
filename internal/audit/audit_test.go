package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dhcpmigrate/internal/domain"
)

func sampleRun(command string) *Run {
	return &Run{
		Command: command,
		Backend: domain.BackendKea,
		Input:   "/conf/config.xml",
		Options: domain.MigrationOptions{Backend: domain.BackendKea, CreateSubnets: true},
		Stats: &domain.MigrationStats{
			MappingsFound:        2,
			ToCreate:             1,
			Skipped:              1,
			InterfacesConfigured: []string{"opt1"},
		},
	}
}

func TestMemoryJournal_Record(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	run := sampleRun(CommandConvert)
	run.Output = "/tmp/new.xml"
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, total, err := j.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(runs) != 1 {
		t.Fatalf("expected 1 run, got total=%d len=%d", total, len(runs))
	}
	got := runs[0]
	if got.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if got.StartedAt.IsZero() || got.FinishedAt.IsZero() {
		t.Error("expected timestamps to be assigned")
	}
	if got.Outcome != OutcomeSucceeded {
		t.Errorf("Outcome = %q, want %q", got.Outcome, OutcomeSucceeded)
	}
	if got.Output != "/tmp/new.xml" || got.Stats.ToCreate != 1 {
		t.Errorf("stored run = %+v", got)
	}
}

func TestMemoryJournal_Record_Nil(t *testing.T) {
	if err := NewMemoryJournal().Record(context.Background(), nil); err != nil {
		t.Fatalf("Record(nil) should not error, got %v", err)
	}
}

func TestPrepare_Outcome(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want string
	}{
		{"no error", Run{}, OutcomeSucceeded},
		{"error", Run{Error: "boom"}, OutcomeFailed},
		{"explicit outcome kept", Run{Outcome: OutcomeChanged, Error: "verify: changes detected"}, OutcomeChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepare(&tt.run)
			if tt.run.Outcome != tt.want {
				t.Errorf("Outcome = %q, want %q", tt.run.Outcome, tt.want)
			}
		})
	}
}

func TestMemoryJournal_NewestFirst(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	for _, cmd := range []string{CommandScan, CommandConvert, CommandVerify} {
		if err := j.Record(ctx, sampleRun(cmd)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	runs, _, _ := j.List(ctx, ListOptions{})
	want := []string{CommandVerify, CommandConvert, CommandScan}
	for i, r := range runs {
		if r.Command != want[i] {
			t.Errorf("runs[%d].Command = %q, want %q", i, r.Command, want[i])
		}
	}
}

func TestMemoryJournal_List_Filtering(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	old := sampleRun(CommandScan)
	old.StartedAt = time.Now().Add(-48 * time.Hour)
	failed := sampleRun(CommandConvert)
	failed.Error = "No Kea subnets found."
	dnsmasq := sampleRun(CommandConvert)
	dnsmasq.Backend = domain.BackendDnsmasq
	for _, r := range []*Run{old, failed, dnsmasq, sampleRun(CommandVerify)} {
		if err := j.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	since := time.Now().Add(-time.Hour)
	tests := []struct {
		name string
		opts ListOptions
		want int
	}{
		{"all", ListOptions{}, 4},
		{"by command", ListOptions{Command: CommandConvert}, 2},
		{"by backend", ListOptions{Backend: domain.BackendDnsmasq}, 1},
		{"by outcome", ListOptions{Outcome: OutcomeFailed}, 1},
		{"since", ListOptions{Since: &since}, 3},
		{"combined", ListOptions{Command: CommandConvert, Outcome: OutcomeSucceeded}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, total, err := j.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want || len(runs) != tt.want {
				t.Errorf("got total=%d len=%d, want %d", total, len(runs), tt.want)
			}
		})
	}
}

func TestMemoryJournal_List_Pagination(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if err := j.Record(ctx, sampleRun(CommandScan)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		opts    ListOptions
		wantLen int
	}{
		{"first page", ListOptions{Limit: 10}, 10},
		{"last page", ListOptions{Limit: 10, Offset: 20}, 5},
		{"offset past end", ListOptions{Limit: 10, Offset: 100}, 0},
		{"default limit", ListOptions{}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, total, err := j.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != 25 {
				t.Errorf("total = %d, want 25", total)
			}
			if len(runs) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(runs), tt.wantLen)
			}
		})
	}
}

func TestMemoryJournal_Get(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	run := sampleRun(CommandVerify)
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := j.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Command != CommandVerify {
		t.Errorf("Command = %q", got.Command)
	}
	if _, err := j.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryJournal_ImmutableResults(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	run := sampleRun(CommandConvert)
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	run.Input = "tampered"
	run.Stats.InterfacesConfigured[0] = "tampered"

	runs, _, _ := j.List(ctx, ListOptions{})
	if runs[0].Input != "/conf/config.xml" || runs[0].Stats.InterfacesConfigured[0] != "opt1" {
		t.Errorf("caller modification leaked: %+v", runs[0])
	}

	runs[0].Stats.ToCreate = 99
	again, _, _ := j.List(ctx, ListOptions{})
	if again[0].Stats.ToCreate != 1 {
		t.Error("returned modification leaked")
	}
}

func TestMemoryJournal_Concurrency(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := j.Record(ctx, sampleRun(CommandScan)); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, _, err := j.List(ctx, ListOptions{Limit: 5}); err != nil {
				t.Errorf("List() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if _, total, _ := j.List(ctx, ListOptions{}); total != 50 {
		t.Errorf("total = %d, want 50", total)
	}
}

func TestWithMaxRuns(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		records int
		want    int
	}{
		{"custom max", 10, 15, 10},
		{"zero keeps default", 0, 5, 5},
		{"negative keeps default", -1, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewMemoryJournal(WithMaxRuns(tt.max))
			for i := 0; i < tt.records; i++ {
				_ = j.Record(context.Background(), sampleRun(CommandScan))
			}
			if _, total, _ := j.List(context.Background(), ListOptions{}); total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{20, 20},
		{5000, MaxLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRunDuration(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Run{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	if d := r.Duration(); d != 1500*time.Millisecond {
		t.Errorf("Duration() = %v", d)
	}
	if d := (&Run{StartedAt: start}).Duration(); d != 0 {
		t.Errorf("unfinished Duration() = %v, want 0", d)
	}
}

func TestLoadMigrations(t *testing.T) {
	for _, dialect := range []string{"sqlite", "postgres"} {
		t.Run(dialect, func(t *testing.T) {
			all, err := loadMigrations(dialect)
			if err != nil {
				t.Fatalf("loadMigrations() error = %v", err)
			}
			if len(all) == 0 || all[0].version != 1 {
				t.Fatalf("migrations = %+v", all)
			}
			if got := pending(all, map[int]bool{1: true}); len(got) != len(all)-1 {
				t.Errorf("pending after v1 = %d, want %d", len(got), len(all)-1)
			}
		})
	}
	if _, err := loadMigrations("oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}
