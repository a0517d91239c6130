//go:build !sqlite && !postgres

package main

import (
	"context"
	"os"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/observability"
)

// selectJournal returns the in-memory journal when built without the
// 'sqlite' and 'postgres' tags. Runs are then only visible within one
// process.
func selectJournal(_ context.Context, _ *Config, logger observability.Logger) audit.Journal {
	if os.Getenv("SQLITE_DSN") != "" || os.Getenv("DATABASE_URL") != "" {
		logger.Warn("journal database configured, but binary not built with -tags sqlite or postgres; using in-memory journal")
	}
	return audit.NewMemoryJournal()
}
