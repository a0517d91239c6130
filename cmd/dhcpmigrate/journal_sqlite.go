//go:build sqlite && !postgres

package main

import (
	"context"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/observability"
)

// selectJournal returns a SQLite-backed journal when built with the
// 'sqlite' tag. Configure with SQLITE_DSN or journal.sqlite_dsn.
func selectJournal(_ context.Context, cfg *Config, logger observability.Logger) audit.Journal {
	j, err := audit.NewSQLiteJournal(cfg.Journal.SQLiteDSN)
	if err != nil {
		logger.Error("sqlite journal init failed; falling back to memory", "error", err)
		return audit.NewMemoryJournal()
	}
	logger.Debug("using sqlite journal", "dsn", cfg.Journal.SQLiteDSN)
	return j
}
