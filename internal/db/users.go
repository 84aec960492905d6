package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultCredits is the number of interview credits a new account starts with.
const DefaultCredits = 3

// CreateUser inserts a new user with the default credit allowance. It fails
// when the email is already registered.
func (db *DB) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, credits_remaining)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, password_hash, credits_remaining, created_at`,
		name, email, passwordHash, DefaultCredits,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreditsRemaining, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, or nil when none exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, credits_remaining, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreditsRemaining, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// DecrementCredits spends one interview credit. It returns false when the
// user has none left, without going negative under concurrent spends.
func (db *DB) DecrementCredits(ctx context.Context, email string) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE users SET credits_remaining = credits_remaining - 1
		 WHERE email = $1 AND credits_remaining > 0`,
		email,
	)
	if err != nil {
		return false, fmt.Errorf("failed to decrement credits: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
