package audit

import (
	"context"
	"sync"
)

// DefaultMaxRuns is the default maximum number of runs kept in memory.
const DefaultMaxRuns = 10000

// MemoryJournal is an in-memory Journal. Runs are kept newest first and
// trimmed to a maximum size. Safe for concurrent use.
type MemoryJournal struct {
	mu      sync.RWMutex
	runs    []*Run
	maxRuns int
}

// MemoryJournalOption configures a MemoryJournal.
type MemoryJournalOption func(*MemoryJournal)

// WithMaxRuns sets the maximum number of runs to keep.
func WithMaxRuns(max int) MemoryJournalOption {
	return func(m *MemoryJournal) {
		if max > 0 {
			m.maxRuns = max
		}
	}
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal(opts ...MemoryJournalOption) *MemoryJournal {
	m := &MemoryJournal{maxRuns: DefaultMaxRuns}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryJournal) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(run)
	m.runs = append([]*Run{copyRun(run)}, m.runs...)
	if len(m.runs) > m.maxRuns {
		m.runs = m.runs[:m.maxRuns]
	}
	return nil
}

func (m *MemoryJournal) List(ctx context.Context, opts ListOptions) ([]*Run, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*Run
	for _, r := range m.runs {
		if matches(r, opts) {
			filtered = append(filtered, r)
		}
	}
	total := len(filtered)

	start := min(opts.Offset, total)
	end := min(start+clampLimit(opts.Limit), total)
	out := make([]*Run, 0, end-start)
	for _, r := range filtered[start:end] {
		out = append(out, copyRun(r))
	}
	return out, total, nil
}

func (m *MemoryJournal) Get(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			return copyRun(r), nil
		}
	}
	return nil, ErrNotFound
}

// Close is a no-op.
func (m *MemoryJournal) Close() error { return nil }

func matches(r *Run, opts ListOptions) bool {
	if opts.Command != "" && r.Command != opts.Command {
		return false
	}
	if opts.Backend != "" && r.Backend != opts.Backend {
		return false
	}
	if opts.Outcome != "" && r.Outcome != opts.Outcome {
		return false
	}
	if opts.Since != nil && r.StartedAt.Before(*opts.Since) {
		return false
	}
	return true
}
