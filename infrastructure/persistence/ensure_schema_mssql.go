package persistence

import (
	"database/sql"
	"fmt"
)

// EnsureUserSchemaMSSQL creates the users table for SQL Server if it does not exist.
func EnsureUserSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.users') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[users] (
        id NVARCHAR(64) PRIMARY KEY,
        email NVARCHAR(255) NOT NULL,
        name NVARCHAR(255) NOT NULL DEFAULT '',
        tz NVARCHAR(64) NOT NULL DEFAULT 'UTC',
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_users_email ON dbo.[users](email);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create users (mssql): %w", err)
	}
	return nil
}

// EnsureCredentialSchemaMSSQL creates the oauth_credentials table for SQL Server if it does not exist.
func EnsureCredentialSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.oauth_credentials') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[oauth_credentials] (
        user_id NVARCHAR(64) NOT NULL,
        provider NVARCHAR(64) NOT NULL,
        access_token_enc NVARCHAR(MAX) NOT NULL,
        refresh_token_enc NVARCHAR(MAX) NULL,
        expires_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL,
        CONSTRAINT PK_oauth_credentials PRIMARY KEY (user_id, provider)
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create oauth_credentials (mssql): %w", err)
	}
	return nil
}

// EnsureSelectionSchemaMSSQL creates the channel_selections table for SQL Server if it does not exist.
func EnsureSelectionSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.channel_selections') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[channel_selections] (
        user_id NVARCHAR(64) NOT NULL,
        channel_id NVARCHAR(128) NOT NULL,
        title NVARCHAR(255) NOT NULL DEFAULT '',
        created_at DATETIME2 NOT NULL,
        CONSTRAINT PK_channel_selections PRIMARY KEY (user_id, channel_id)
    );
    CREATE INDEX IX_channel_selections_user ON dbo.[channel_selections](user_id, created_at);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create channel_selections (mssql): %w", err)
	}
	return nil
}
