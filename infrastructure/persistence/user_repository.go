package persistence

import (
	"context"
	"database/sql"
	"time"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"

	"github.com/google/uuid"
)

// UserRepository is a PostgreSQL implementation of IUser using database/sql.
type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) repository.IUser { return &UserRepository{db: db} }

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT id, email, name, tz, created_at, updated_at FROM users WHERE email = $1`, email)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) UpsertByEmail(ctx context.Context, user model.User) (model.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	q := `INSERT INTO users (id, email, name, tz, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$5)
	      ON CONFLICT (email) DO UPDATE SET
	        name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
	        tz = EXCLUDED.tz,
	        updated_at = EXCLUDED.updated_at
	      RETURNING id, email, name, tz, created_at, updated_at`
	var u model.User
	row := r.db.QueryRowContext(ctx, q, user.ID, user.Email, user.Name, user.Timezone, now)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		logger.GetLogger().WithField("error", err).WithField("email", user.Email).Error("upsert user failed")
		return model.User{}, err
	}
	return u, nil
}
