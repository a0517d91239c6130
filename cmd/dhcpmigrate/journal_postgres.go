//go:build postgres && !sqlite

package main

import (
	"context"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/observability"
)

// selectJournal returns a PostgreSQL-backed journal when built with the
// 'postgres' tag. Configure with DATABASE_URL or journal.database_url.
func selectJournal(ctx context.Context, cfg *Config, logger observability.Logger) audit.Journal {
	j, err := audit.NewPostgresJournal(ctx, cfg.Journal.DatabaseURL)
	if err != nil {
		logger.Error("postgres journal init failed; falling back to memory", "error", err)
		return audit.NewMemoryJournal()
	}
	logger.Debug("using postgres journal")
	return j
}
