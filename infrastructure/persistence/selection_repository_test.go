package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/domain/model"
)

func TestSelectionRepository_Replace_OverCapRejectedWithoutWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSelectionRepository(db)
	ids := make([]string, model.SelectionCap+1)
	for i := range ids {
		ids[i] = "UC" + string(rune('a'+i))
	}

	err = repo.Replace(context.Background(), "user-1", ids, nil)
	assert.ErrorIs(t, err, model.ErrLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_Replace_CapAppliesToDedupedSet(t *testing.T) {
	// Twelve raw ids that collapse to two distinct channels must pass the
	// cap check; only the cleaned set counts against the limit.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)`)).
		WithArgs("user-1", "UCaaa", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)`)).
		WithArgs("user-1", "UCbbb", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ids := make([]string, 0, model.SelectionCap+2)
	for i := 0; i < model.SelectionCap+2; i++ {
		if i%2 == 0 {
			ids = append(ids, "UCaaa")
		} else {
			ids = append(ids, "UCbbb")
		}
	}

	repo := NewSelectionRepository(db)
	err = repo.Replace(context.Background(), "user-1", ids, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_Replace_DedupesAndDropsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)`)).
		WithArgs("user-1", "UCaaa", "Chan A", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at) VALUES ($1,$2,$3,$4)`)).
		WithArgs("user-1", "UCbbb", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSelectionRepository(db)
	err = repo.Replace(context.Background(), "user-1",
		[]string{"UCaaa", "", "UCbbb", "UCaaa"},
		map[string]string{"UCaaa": "Chan A"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_Replace_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections`)).
		WithArgs("user-1", "UCaaa", "", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewSelectionRepository(db)
	err = repo.Replace(context.Background(), "user-1", []string{"UCaaa"}, nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_AddAtCapRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM channel_selections WHERE user_id=$1 AND channel_id=$2)`)).
		WithArgs("user-1", "UCnew").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(model.SelectionCap))
	mock.ExpectRollback()

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCnew", "New Channel", true)
	assert.ErrorIs(t, err, model.ErrLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_AddBelowCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM channel_selections WHERE user_id=$1 AND channel_id=$2)`)).
		WithArgs("user-1", "UCnew").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at)`)).
		WithArgs("user-1", "UCnew", "New Channel", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCnew", "New Channel", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_AddExistingIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM channel_selections WHERE user_id=$1 AND channel_id=$2)`)).
		WithArgs("user-1", "UCdup").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCdup", "Dup", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_ConflictInsertIsNotCapError(t *testing.T) {
	// A duplicate resolved by ON CONFLICT DO NOTHING affects zero rows;
	// that is an idempotent no-op, not a cap rejection.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM channel_selections WHERE user_id=$1 AND channel_id=$2)`)).
		WithArgs("user-1", "UCnew").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO channel_selections (user_id, channel_id, title, created_at)`)).
		WithArgs("user-1", "UCnew", "New Channel", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCnew", "New Channel", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_RemoveAbsentIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM channel_selections WHERE user_id=$1 AND channel_id=$2`)).
		WithArgs("user-1", "UCgone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCgone", "", false)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SetMembership_EmptyIDIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSelectionRepository(db)
	err = repo.SetMembership(context.Background(), "user-1", "", "", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_ListOrdersByCreation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"user_id", "channel_id", "title", "created_at"}).
		AddRow("user-1", "UCfirst", "First", now).
		AddRow("user-1", "UCsecond", "Second", now.Add(time.Microsecond))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, channel_id, title, created_at FROM channel_selections WHERE user_id=$1 ORDER BY created_at, channel_id`)).
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := NewSelectionRepository(db)
	list, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "UCfirst", list[0].ChannelID)
	assert.Equal(t, "UCsecond", list[1].ChannelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM channel_selections WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewSelectionRepository(db)
	n, err := repo.Count(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryMSSQL_SetMembership_AddAtCapRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`EXEC sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Transaction'`)).
		WithArgs("channel_selections:user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1 AND channel_id=@p2`)).
		WithArgs("user-1", "UCnew").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(model.SelectionCap))
	mock.ExpectRollback()

	repo := NewSelectionRepositoryMSSQL(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCnew", "New Channel", true)
	assert.ErrorIs(t, err, model.ErrLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryMSSQL_SetMembership_AddBelowCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`EXEC sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Transaction'`)).
		WithArgs("channel_selections:user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1 AND channel_id=@p2`)).
		WithArgs("user-1", "UCnew").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM dbo.[channel_selections] WHERE user_id=@p1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO dbo.[channel_selections] (user_id, channel_id, title, created_at) VALUES (@p1, @p2, @p3, @p4)`)).
		WithArgs("user-1", "UCnew", "New Channel", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSelectionRepositoryMSSQL(db)
	err = repo.SetMembership(context.Background(), "user-1", "UCnew", "New Channel", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
