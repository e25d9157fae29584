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

// CredentialRepository stores OAuth token pairs encrypted at rest. The raw
// tokens exist only inside Upsert/Get; everything between is ciphertext.
type CredentialRepository struct {
	db     *sql.DB
	cipher *securetoken.Cipher
}

func NewCredentialRepository(db *sql.DB, cipher *securetoken.Cipher) repository.ICredential {
	return &CredentialRepository{db: db, cipher: cipher}
}

func (r *CredentialRepository) Upsert(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt *time.Time) error {
	accessEnc, err := r.cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	var refreshEnc sql.NullString
	if refreshToken != "" {
		enc, err := r.cipher.Encrypt(refreshToken)
		if err != nil {
			return err
		}
		refreshEnc = sql.NullString{String: enc, Valid: true}
	}
	now := time.Now().UTC()
	q := `INSERT INTO oauth_credentials (user_id, provider, access_token_enc, refresh_token_enc, expires_at, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$6)
	      ON CONFLICT (user_id, provider) DO UPDATE SET
	        access_token_enc=EXCLUDED.access_token_enc,
	        refresh_token_enc=EXCLUDED.refresh_token_enc,
	        expires_at=EXCLUDED.expires_at,
	        updated_at=EXCLUDED.updated_at`
	_, err = r.db.ExecContext(ctx, q, userID, provider, accessEnc, refreshEnc, expiresAt, now)
	return err
}

func (r *CredentialRepository) Get(ctx context.Context, userID, provider string) (*model.DecryptedCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT access_token_enc, refresh_token_enc, expires_at FROM oauth_credentials WHERE user_id=$1 AND provider=$2`,
		userID, provider)
	var accessEnc string
	var refreshEnc sql.NullString
	var exp sql.NullTime
	if err := row.Scan(&accessEnc, &refreshEnc, &exp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoCredential
		}
		return nil, err
	}

	cred := &model.DecryptedCredential{UserID: userID, Provider: provider}
	access, err := r.cipher.Decrypt(accessEnc)
	if err != nil {
		// Tampering or key mismatch. Surfaced distinctly so operators see it,
		// but callers route it to the same place as a missing credential.
		logger.GetLogger().WithField("user_id", userID).WithField("error", err).Error("credential ciphertext failed verification")
		return nil, err
	}
	cred.AccessToken = access
	if refreshEnc.Valid {
		refresh, err := r.cipher.Decrypt(refreshEnc.String)
		if err != nil {
			logger.GetLogger().WithField("user_id", userID).WithField("error", err).Error("refresh token ciphertext failed verification")
			return nil, err
		}
		cred.RefreshToken = refresh
	}
	if exp.Valid {
		cred.ExpiresAt = &exp.Time
	}
	return cred, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_credentials WHERE user_id=$1 AND provider=$2`, userID, provider)
	return err
}
