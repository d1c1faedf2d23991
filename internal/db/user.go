package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// User is a SoniQ account. Spotify token fields are only populated after the
// user completes the authorization-code grant.
type User struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	SpotifyConnected    bool      `json:"spotifyConnected"`
	SpotifyAccessToken  string    `json:"-"`
	SpotifyRefreshToken string    `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
}

// SaveUser inserts a new user record. Returns ErrDuplicateEmail when the
// email is already registered; the existing record is left untouched.
func (d *DB) SaveUser(ctx context.Context, user *User) error {
	logger.Info("Attempting to save user", zap.String("userId", user.ID))

	sqlQuery, err := getQueryString("insert_user")
	if err != nil {
		return fmt.Errorf("error getting query string: %w", err)
	}

	_, err = d.pool.Exec(ctx, sqlQuery,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		logger.Error("SaveUser: Error creating user record",
			zap.String("userId", user.ID),
			zap.Error(err))
		return fmt.Errorf("error creating user record: %w", err)
	}

	return nil
}

// GetUserByEmail looks up a user by their (lowercased) email address.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.getUser(ctx, "select_user_by_email", email)
}

// GetUserByID looks up a user by identifier.
func (d *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	return d.getUser(ctx, "select_user_by_id", id)
}

func (d *DB) getUser(ctx context.Context, queryFilename string, arg string) (*User, error) {
	sqlQuery, err := getQueryString(queryFilename)
	if err != nil {
		return nil, fmt.Errorf("error getting query string: %w", err)
	}

	user := &User{}
	err = d.pool.QueryRow(ctx, sqlQuery, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.SpotifyConnected,
		&user.SpotifyAccessToken,
		&user.SpotifyRefreshToken,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error("getUser: Error querying user", zap.Error(err))
		return nil, fmt.Errorf("error querying user: %w", err)
	}

	return user, nil
}

// SaveSpotifyTokens stores the token pair obtained from the authorization-code
// exchange and marks the user as connected.
func (d *DB) SaveSpotifyTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	sqlQuery, err := getQueryString("update_spotify_tokens")
	if err != nil {
		return fmt.Errorf("error getting query string: %w", err)
	}

	tag, err := d.pool.Exec(ctx, sqlQuery, accessToken, refreshToken, userID)
	if err != nil {
		logger.Error("SaveSpotifyTokens: Error updating tokens",
			zap.String("userId", userID),
			zap.Error(err))
		return fmt.Errorf("error updating spotify tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	logger.Info("Saved Spotify tokens", zap.String("userId", userID))
	return nil
}
