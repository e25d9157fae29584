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

// UserRepositoryMSSQL is the SQL Server variant of IUser.
type UserRepositoryMSSQL struct{ db *sql.DB }

func NewUserRepositoryMSSQL(db *sql.DB) repository.IUser {
	return &UserRepositoryMSSQL{db: db}
}

func (r *UserRepositoryMSSQL) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT id, email, name, tz, created_at, updated_at FROM dbo.[users] WHERE email = @p1`, email)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepositoryMSSQL) UpsertByEmail(ctx context.Context, user model.User) (model.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	q := `MERGE dbo.[users] AS t
USING (SELECT @p2 AS email) AS s
ON t.email = s.email
WHEN MATCHED THEN
  UPDATE SET name = CASE WHEN @p3 <> '' THEN @p3 ELSE t.name END, tz = @p4, updated_at = @p5
WHEN NOT MATCHED THEN
  INSERT (id, email, name, tz, created_at, updated_at)
  VALUES (@p1, @p2, @p3, @p4, @p5, @p5)
OUTPUT inserted.id, inserted.email, inserted.name, inserted.tz, inserted.created_at, inserted.updated_at;`
	var u model.User
	row := r.db.QueryRowContext(ctx, q, user.ID, user.Email, user.Name, user.Timezone, now)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		logger.GetLogger().WithField("error", err).WithField("email", user.Email).Error("mssql: upsert user failed")
		return model.User{}, err
	}
	return u, nil
}
