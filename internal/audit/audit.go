// Package audit keeps a journal of migration runs: which command ran
// against which config.xml, with what options, and how it ended.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dhcpmigrate/internal/domain"
)

// ErrNotFound is returned when a run ID is not in the journal.
var ErrNotFound = errors.New("run not found")

// Run outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	// OutcomeChanged marks a verify run that found differences.
	OutcomeChanged = "changed"
)

// Commands recorded in the journal.
const (
	CommandScan    = "scan"
	CommandConvert = "convert"
	CommandVerify  = "verify"
)

// Pagination bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Run is one journal entry.
type Run struct {
	ID         string                  `json:"id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Command    string                  `json:"command"`
	Backend    domain.Backend          `json:"backend"`
	Input      string                  `json:"input"`
	Output     string                  `json:"output,omitempty"`
	Options    domain.MigrationOptions `json:"options"`
	Stats      *domain.MigrationStats  `json:"stats,omitempty"`
	Warnings   int                     `json:"warnings"`
	Outcome    string                  `json:"outcome"`
	Error      string                  `json:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ListOptions filters and paginates List.
type ListOptions struct {
	Limit   int
	Offset  int
	Command string
	Backend domain.Backend
	Outcome string
	Since   *time.Time
}

// Journal stores migration runs.
type Journal interface {
	// Record stores a run, assigning an ID and timestamps when unset.
	Record(ctx context.Context, run *Run) error
	// List returns runs newest first plus the total number matching.
	List(ctx context.Context, opts ListOptions) ([]*Run, int, error)
	// Get returns one run or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)
	Close() error
}

// prepare fills the generated fields of a run before it is stored.
func prepare(run *Run) {
	now := time.Now().UTC()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = now
	}
	if run.Outcome == "" {
		run.Outcome = OutcomeSucceeded
		if run.Error != "" {
			run.Outcome = OutcomeFailed
		}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func copyRun(r *Run) *Run {
	c := *r
	if r.Stats != nil {
		st := *r.Stats
		st.InterfacesConfigured = append([]string(nil), r.Stats.InterfacesConfigured...)
		c.Stats = &st
	}
	return &c
}
