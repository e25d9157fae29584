package persistence

import (
	"database/sql"
	"fmt"

	"tubedigest/infrastructure/logger"
)

// EnsureUserSchema creates the users table if not exists.
func EnsureUserSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        email TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        tz TEXT NOT NULL DEFAULT 'UTC',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// EnsureCredentialSchema creates the encrypted OAuth credential table if not exists.
func EnsureCredentialSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS oauth_credentials (
        user_id UUID NOT NULL,
        provider TEXT NOT NULL,
        access_token_enc TEXT NOT NULL,
        refresh_token_enc TEXT,
        expires_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (user_id, provider)
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create oauth_credentials table: %w", err)
	}
	return nil
}

// EnsureSelectionSchema creates the selected-channels table if not exists.
func EnsureSelectionSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS channel_selections (
        user_id UUID NOT NULL,
        channel_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (user_id, channel_id)
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create channel_selections table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_channel_selections_user ON channel_selections(user_id)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_channel_selections_user")
	}
	return nil
}
