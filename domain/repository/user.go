package repository

import (
	"context"

	"tubedigest/domain/model"
)

// IUser persists dashboard accounts keyed by email.
type IUser interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// UpsertByEmail creates the user on first OAuth exchange or refreshes
	// name/timezone on subsequent ones, returning the stored row.
	UpsertByEmail(ctx context.Context, user model.User) (model.User, error)
}
