package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finora/api/models"
)

// Users records every account that signs in.
type Users struct {
	DB *sql.DB
}

// UpsertUser merges the identity details into the users table, bumping
// last_login_at. created_at keeps the value of the first insert.
func (u *Users) UpsertUser(ctx context.Context, user models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, photo_url, email_verified, last_login_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			email_verified = EXCLUDED.email_verified,
			last_login_at = CURRENT_TIMESTAMP
	`
	_, err := u.DB.ExecContext(ctx, query, user.UserID, user.Email, user.Name, user.PhotoURL, user.EmailVerified)
	if err != nil {
		return fmt.Errorf("error upserting user %s: %w", user.UserID, err)
	}
	return nil
}

// GetUserByID returns nil, nil when the user has never signed in.
func (u *Users) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, display_name, photo_url, email_verified, last_login_at, created_at
		FROM users
		WHERE id = $1
	`
	user := &models.User{}
	var photo sql.NullString
	var lastLogin, created sql.NullTime
	err := u.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Email,
		&user.Name,
		&photo,
		&user.EmailVerified,
		&lastLogin,
		&created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting user by ID %s: %w", userID, err)
	}

	if photo.Valid {
		user.PhotoURL = &photo.String
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	if created.Valid {
		user.CreatedAt = &created.Time
	}
	return user, nil
}
