package db

import (
	"database/sql"
	"errors"
	"time"
)

// CreateSession stores a new session
func (db *DB) CreateSession(session *Session) error {
	_, err := db.Exec(
		"INSERT INTO sessions (id, user_id, expires_at, revoked_at, created_at) VALUES (?, ?, ?, NULL, ?)",
		session.ID, session.UserID, session.ExpiresAt.Unix(), session.CreatedAt,
	)
	return err
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(id string) (*Session, error) {
	session := &Session{}
	var expiresAt int64
	var revokedAt sql.NullInt64

	err := db.QueryRow(
		"SELECT id, user_id, expires_at, revoked_at, created_at FROM sessions WHERE id = ?",
		id,
	).Scan(&session.ID, &session.UserID, &expiresAt, &revokedAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	session.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	if revokedAt.Valid {
		t := time.Unix(revokedAt.Int64, 0).UTC()
		session.RevokedAt = &t
	}
	return session, nil
}

// RevokeSession marks a session as revoked; revoking twice is a no-op
func (db *DB) RevokeSession(id string, at time.Time) error {
	result, err := db.Exec(
		"UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?",
		at.Unix(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInactiveSessions removes sessions that expired before now or were revoked.
// It returns the number of rows removed.
func (db *DB) DeleteInactiveSessions(now time.Time) (int64, error) {
	result, err := db.Exec(
		"DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL",
		now.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
