//go:build sqlite && postgres

package main

import (
	"context"
	"os"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/observability"
)

func usePostgres(cfg *Config) bool {
	return os.Getenv("DATABASE_URL") != "" || cfg.Journal.DatabaseURL != defaultDatabaseURL
}

// selectJournal picks PostgreSQL if a database URL is configured,
// otherwise SQLite, otherwise memory.
func selectJournal(ctx context.Context, cfg *Config, logger observability.Logger) audit.Journal {
	if usePostgres(cfg) {
		j, err := audit.NewPostgresJournal(ctx, cfg.Journal.DatabaseURL)
		if err != nil {
			logger.Error("postgres journal init failed; falling back to sqlite", "error", err)
		} else {
			logger.Debug("using postgres journal")
			return j
		}
	}
	j, err := audit.NewSQLiteJournal(cfg.Journal.SQLiteDSN)
	if err != nil {
		logger.Error("sqlite journal init failed; falling back to memory", "error", err)
		return audit.NewMemoryJournal()
	}
	logger.Debug("using sqlite journal", "dsn", cfg.Journal.SQLiteDSN)
	return j
}
