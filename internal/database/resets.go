package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (db *DB) CreatePasswordReset(ctx context.Context, token, uid string, expiresAt time.Time) error {
	query := `INSERT INTO password_resets (token, uid, expires_at, created_at) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query, token, uid, expiresAt.UTC(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// RedeemPasswordReset sets hash as the password of the token's account and
// deletes the token in one transaction. An expired token is deleted and
// reported as ErrResetNotFound; any other failure leaves the token usable.
func (db *DB) RedeemPasswordReset(ctx context.Context, token, hash string, now time.Time) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var uid string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT uid, expires_at FROM password_resets WHERE token = ?`, token).Scan(&uid, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrResetNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query password reset: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_resets WHERE token = ?`, token); err != nil {
		return "", fmt.Errorf("failed to delete password reset: %w", err)
	}

	if !now.Before(expiresAt) {
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("failed to commit: %w", err)
		}
		return "", ErrResetNotFound
	}

	res, err := tx.ExecContext(ctx, `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE uid = ?`, hash, now.UTC(), uid)
	if err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}
	if n == 0 {
		return "", ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return uid, nil
}

// PurgeExpiredResets removes tokens that expired before now.
func (db *DB) PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge password resets: %w", err)
	}
	return res.RowsAffected()
}
