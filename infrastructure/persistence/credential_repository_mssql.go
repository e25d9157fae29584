package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
	"tubedigest/infrastructure/securetoken"
)

// CredentialRepositoryMSSQL is the SQL Server variant of ICredential.
type CredentialRepositoryMSSQL struct {
	db     *sql.DB
	cipher *securetoken.Cipher
}

func NewCredentialRepositoryMSSQL(db *sql.DB, cipher *securetoken.Cipher) repository.ICredential {
	return &CredentialRepositoryMSSQL{db: db, cipher: cipher}
}

func (r *CredentialRepositoryMSSQL) Upsert(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt *time.Time) error {
	encAccess, err := r.cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	var encRefresh sql.NullString
	if refreshToken != "" {
		enc, err := r.cipher.Encrypt(refreshToken)
		if err != nil {
			return err
		}
		encRefresh = sql.NullString{String: enc, Valid: true}
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
MERGE dbo.[oauth_credentials] AS t
USING (SELECT @p1 AS user_id, @p2 AS provider) AS s
ON t.user_id = s.user_id AND t.provider = s.provider
WHEN MATCHED THEN
  UPDATE SET access_token_enc = @p3, refresh_token_enc = @p4, expires_at = @p5, updated_at = @p6
WHEN NOT MATCHED THEN
  INSERT (user_id, provider, access_token_enc, refresh_token_enc, expires_at, created_at, updated_at)
  VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p6);`,
		userID, provider, encAccess, encRefresh, expiresAt, now)
	return err
}

func (r *CredentialRepositoryMSSQL) Get(ctx context.Context, userID, provider string) (*model.DecryptedCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT access_token_enc, refresh_token_enc, expires_at FROM dbo.[oauth_credentials] WHERE user_id=@p1 AND provider=@p2`,
		userID, provider)
	var encAccess string
	var encRefresh sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&encAccess, &encRefresh, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoCredential
		}
		return nil, err
	}
	cred := &model.DecryptedCredential{UserID: userID, Provider: provider}
	access, err := r.cipher.Decrypt(encAccess)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err).Error("mssql: failed to decrypt access token")
		return nil, err
	}
	cred.AccessToken = access
	if encRefresh.Valid {
		refresh, err := r.cipher.Decrypt(encRefresh.String)
		if err != nil {
			logger.GetLogger().WithField("user_id", userID).WithField("error", err).Error("mssql: failed to decrypt refresh token")
			return nil, err
		}
		cred.RefreshToken = refresh
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		cred.ExpiresAt = &t
	}
	return cred, nil
}

func (r *CredentialRepositoryMSSQL) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dbo.[oauth_credentials] WHERE user_id=@p1 AND provider=@p2`, userID, provider)
	return err
}
