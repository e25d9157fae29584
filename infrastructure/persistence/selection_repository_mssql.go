package persistence

import (
	"context"
	"database/sql"
	"time"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
)

// SelectionRepositoryMSSQL is the SQL Server variant of ISelection.
type SelectionRepositoryMSSQL struct{ db *sql.DB }

func NewSelectionRepositoryMSSQL(db *sql.DB) repository.ISelection {
	return &SelectionRepositoryMSSQL{db: db}
}

// lockSelectionMSSQL serializes selection writes for one user via an
// application lock scoped to the transaction.
func lockSelectionMSSQL(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		`EXEC sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Transaction'`,
		"channel_selections:"+userID)
	return err
}

func (r *SelectionRepositoryMSSQL) Replace(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error {
	ids := cleanIDs(channelIDs)
	if len(ids) > model.SelectionCap {
		return model.ErrLimitExceeded
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockSelectionMSSQL(ctx, tx, userID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM dbo.[channel_selections] WHERE user_id=@p1`, userID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, id := range ids {
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO dbo.[channel_selections] (user_id, channel_id, title, created_at) VALUES (@p1, @p2, @p3, @p4)`,
			userID, id, titles[id], createdAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SelectionRepositoryMSSQL) SetMembership(ctx context.Context, userID, channelID, title string, selected bool) error {
	if channelID == "" {
		return nil
	}
	if !selected {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM dbo.[channel_selections] WHERE user_id=@p1 AND channel_id=@p2`, userID, channelID)
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The app lock serializes adds per user; the count below cannot race
	// another toggle under READ COMMITTED.
	if err = lockSelectionMSSQL(ctx, tx, userID); err != nil {
		return err
	}

	var exists int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1 AND channel_id=@p2`, userID, channelID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return tx.Commit()
	}

	var count int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1`, userID).Scan(&count); err != nil {
		return err
	}
	if count >= model.SelectionCap {
		logger.GetLogger().WithField("user_id", userID).WithField("channel_id", channelID).Warn("mssql: selection cap reached; toggle rejected")
		err = model.ErrLimitExceeded
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO dbo.[channel_selections] (user_id, channel_id, title, created_at) VALUES (@p1, @p2, @p3, @p4)`,
		userID, channelID, title, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SelectionRepositoryMSSQL) List(ctx context.Context, userID string) ([]model.SelectionEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, channel_id, title, created_at FROM dbo.[channel_selections] WHERE user_id=@p1 ORDER BY created_at, channel_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.SelectionEntry
	for rows.Next() {
		var e model.SelectionEntry
		if err := rows.Scan(&e.UserID, &e.ChannelID, &e.Title, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *SelectionRepositoryMSSQL) Count(ctx context.Context, userID string) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
