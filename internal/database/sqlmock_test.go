package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return New(sqlDB, nil), mock
}

func TestMock_GetAccountQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("FROM accounts WHERE email").
		WithArgs("ava@example.com").
		WillReturnError(boom)

	_, err := db.GetAccountByEmail(context.Background(), " AVA@example.com")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_GetAccountScansRow(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"uid", "email", "display_name", "password_hash", "disabled", "created_at", "updated_at"}).
		AddRow("u1", "ava@example.com", "Ava", "hash", true, now, now)
	mock.ExpectQuery("FROM accounts WHERE uid").WithArgs("u1").WillReturnRows(rows)

	got, err := db.GetAccountByUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ava", got.DisplayName)
	assert.True(t, got.Disabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_UpdateNoRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE accounts SET display_name").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, db.UpdateDisplayName(context.Background(), "ghost", "x"), ErrAccountNotFound)

	mock.ExpectExec("UPDATE accounts SET disabled").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows unavailable")))
	assert.Error(t, db.SetAccountDisabled(context.Background(), "u1", true))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_RedeemResetRollsBackOnUpdateFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uid, expires_at FROM password_resets").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "expires_at"}).AddRow("u1", time.Now().Add(time.Hour)))
	mock.ExpectExec("DELETE FROM password_resets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET password_hash").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	_, err := db.RedeemPasswordReset(context.Background(), "tok", "hash", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_RedeemResetRollsBackOnMissingAccount(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uid, expires_at FROM password_resets").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "expires_at"}).AddRow("ghost", time.Now().Add(time.Hour)))
	mock.ExpectExec("DELETE FROM password_resets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET password_hash").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := db.RedeemPasswordReset(context.Background(), "tok", "hash", time.Now())
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
