package db

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique column already holds the value
	ErrDuplicate = errors.New("record already exists")
)

// CreateUser inserts a new user; ErrDuplicate when the email is taken
func (db *DB) CreateUser(user *User) error {
	var confirmedAt interface{}
	if user.ConfirmedAt != nil {
		confirmedAt = *user.ConfirmedAt
	}

	_, err := db.Exec(
		"INSERT INTO users (id, email, password_hash, created_at, confirmed_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, normalizeEmail(user.Email), user.PasswordHash, user.CreatedAt, confirmedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (db *DB) GetUserByEmail(email string) (*User, error) {
	return db.scanUser(db.QueryRow(
		"SELECT id, email, password_hash, created_at, confirmed_at FROM users WHERE email = ?",
		normalizeEmail(email),
	))
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(id string) (*User, error) {
	return db.scanUser(db.QueryRow(
		"SELECT id, email, password_hash, created_at, confirmed_at FROM users WHERE id = ?",
		id,
	))
}

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var confirmedAt sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		user.ConfirmedAt = &confirmedAt.Time
	}
	return user, nil
}

// normalizeEmail lower-cases and trims an address so lookups are case-insensitive
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
