package database

import (
	"context"
	"fmt"
	"time"

	"jetcharter/internal/models"
)

// BindClient records that clientID is signed in as uid, replacing any earlier binding.
func (db *DB) BindClient(ctx context.Context, clientID, uid string) error {
	query := `INSERT INTO provider_sessions (client_id, uid, signed_in_at) VALUES (?, ?, ?)
              ON CONFLICT(client_id) DO UPDATE SET uid = excluded.uid, signed_in_at = excluded.signed_in_at`
	if _, err := db.ExecContext(ctx, query, clientID, uid, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to bind client: %w", err)
	}
	return nil
}

// UnbindClient signs clientID out. It reports whether a binding existed.
func (db *DB) UnbindClient(ctx context.Context, clientID string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM provider_sessions WHERE client_id = ?`, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to unbind client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unbind client: %w", err)
	}
	return n > 0, nil
}

// ClientAccount returns the account clientID is signed in as.
func (db *DB) ClientAccount(ctx context.Context, clientID string) (*models.Account, error) {
	query := `SELECT a.uid, a.email, a.display_name, a.password_hash, a.disabled, a.created_at, a.updated_at
              FROM provider_sessions s JOIN accounts a ON a.uid = s.uid
              WHERE s.client_id = ?`
	return db.queryAccount(ctx, query, clientID)
}

// ClientsOf lists the clients signed in as uid.
func (db *DB) ClientsOf(ctx context.Context, uid string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT client_id FROM provider_sessions WHERE uid = ? ORDER BY signed_in_at`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		clients = append(clients, id)
	}
	return clients, rows.Err()
}
