package persistence

import (
	"context"
	"database/sql"
	"time"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
)

// SelectionRepository is the PostgreSQL selected-channels store. The cap is
// enforced here for both mutation paths, with writes serialized per user
// through a transaction-scoped advisory lock so two concurrent toggles
// cannot jointly push a user past the cap.
type SelectionRepository struct{ db *sql.DB }

// lockSelection serializes selection writes for one user. The lock is
// released when the transaction commits or rolls back.
func lockSelection(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return err
}

func NewSelectionRepository(db *sql.DB) repository.ISelection { return &SelectionRepository{db: db} }

// cleanIDs drops empty ids and collapses duplicates, preserving order.
func cleanIDs(channelIDs []string) []string {
	seen := make(map[string]struct{}, len(channelIDs))
	out := make([]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *SelectionRepository) Replace(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error {
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

	if err = lockSelection(ctx, tx, userID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM channel_selections WHERE user_id=$1`, userID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, id := range ids {
		// Spread created_at so insertion order survives a sort.
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)`,
			userID, id, titles[id], createdAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SelectionRepository) SetMembership(ctx context.Context, userID, channelID, title string, selected bool) error {
	if channelID == "" {
		return nil
	}
	if !selected {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM channel_selections WHERE user_id=$1 AND channel_id=$2`, userID, channelID)
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

	// The advisory lock serializes adds per user, so the count read below
	// cannot race another toggle under READ COMMITTED.
	if err = lockSelection(ctx, tx, userID); err != nil {
		return err
	}

	var exists bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM channel_selections WHERE user_id=$1 AND channel_id=$2)`, userID, channelID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return tx.Commit()
	}

	var count int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`, userID).Scan(&count); err != nil {
		return err
	}
	if count >= model.SelectionCap {
		logger.GetLogger().WithField("user_id", userID).WithField("channel_id", channelID).Warn("selection cap reached; toggle rejected")
		err = model.ErrLimitExceeded
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id, channel_id) DO NOTHING`,
		userID, channelID, title, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SelectionRepository) List(ctx context.Context, userID string) ([]model.SelectionEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, channel_id, title, created_at FROM channel_selections WHERE user_id=$1 ORDER BY created_at, channel_id`, userID)
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

func (r *SelectionRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
