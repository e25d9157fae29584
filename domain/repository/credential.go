package repository

import (
	"context"
	"time"

	"tubedigest/domain/model"
)

// ICredential stores per-user OAuth token pairs encrypted at rest. A put
// supersedes any existing record for (user, provider); records are never
// merged.
type ICredential interface {
	Upsert(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt *time.Time) error
	// Get decrypts on read. Returns model.ErrNoCredential when nothing is
	// stored and model.ErrDecryptionFailed when the ciphertext does not
	// verify; callers route both to fallback behavior.
	Get(ctx context.Context, userID, provider string) (*model.DecryptedCredential, error)
	Delete(ctx context.Context, userID, provider string) error
}
