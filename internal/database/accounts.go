package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jetcharter/internal/models"
)

const accountColumns = `uid, email, display_name, password_hash, disabled, created_at, updated_at`

func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		account.UID,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.Disabled,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return db.queryAccount(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (db *DB) GetAccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE uid = ?`
	return db.queryAccount(ctx, query, uid)
}

func (db *DB) queryAccount(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var a models.Account
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&a.UID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Disabled, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &a, nil
}

func (db *DB) UpdateDisplayName(ctx context.Context, uid, name string) error {
	query := `UPDATE accounts SET display_name = ?, updated_at = ? WHERE uid = ?`
	return db.execAffectingAccount(ctx, query, name, time.Now().UTC(), uid)
}

func (db *DB) SetAccountDisabled(ctx context.Context, uid string, disabled bool) error {
	query := `UPDATE accounts SET disabled = ?, updated_at = ? WHERE uid = ?`
	return db.execAffectingAccount(ctx, query, disabled, time.Now().UTC(), uid)
}

func (db *DB) execAffectingAccount(ctx context.Context, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
