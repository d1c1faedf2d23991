package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// TrackSummary is the app-owned snapshot of one catalog track at generation
// time. It is never re-validated against the catalog afterward.
type TrackSummary struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Cover    string `json:"cover"`
	Duration string `json:"duration"`
}

// HistoryEntry is one past playlist-generation event for a user.
type HistoryEntry struct {
	Mood  string         `json:"mood"`
	Date  time.Time      `json:"date"`
	Songs []TrackSummary `json:"songs"`
}

// AddHistoryEntry records a playlist generation for the user. Entries are
// read back newest first, so inserting a row is equivalent to prepending.
// Returns ErrNotFound when the user does not exist.
func (d *DB) AddHistoryEntry(ctx context.Context, userID string, entry *HistoryEntry) error {
	sqlQuery, err := getQueryString("insert_history_entry")
	if err != nil {
		return fmt.Errorf("error getting query string: %w", err)
	}

	songs, err := json.Marshal(entry.Songs)
	if err != nil {
		return fmt.Errorf("error marshaling songs: %w", err)
	}

	_, err = d.pool.Exec(ctx, sqlQuery, userID, entry.Mood, entry.Date, songs)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		logger.Error("AddHistoryEntry: Error inserting history entry",
			zap.String("userId", userID),
			zap.String("mood", entry.Mood),
			zap.Error(err))
		return fmt.Errorf("error inserting history entry: %w", err)
	}

	return nil
}

// GetHistory returns all history entries for the user, most recent first.
// Returns ErrNotFound when the user does not exist.
func (d *DB) GetHistory(ctx context.Context, userID string) ([]*HistoryEntry, error) {
	existsQuery, err := getQueryString("select_user_exists")
	if err != nil {
		return nil, fmt.Errorf("error getting query string: %w", err)
	}
	var exists bool
	if err := d.pool.QueryRow(ctx, existsQuery, userID).Scan(&exists); err != nil {
		logger.Error("GetHistory: Error checking user existence", zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	sqlQuery, err := getQueryString("select_history_by_user")
	if err != nil {
		return nil, fmt.Errorf("error getting query string: %w", err)
	}

	rows, err := d.pool.Query(ctx, sqlQuery, userID)
	if err != nil {
		logger.Error("GetHistory: Error querying history", zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("error querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		entry := &HistoryEntry{}
		var songs []byte
		if err := rows.Scan(&entry.Mood, &entry.Date, &songs); err != nil {
			return nil, fmt.Errorf("error scanning history entry: %w", err)
		}
		if err := json.Unmarshal(songs, &entry.Songs); err != nil {
			return nil, fmt.Errorf("error unmarshaling songs: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading history rows: %w", err)
	}

	return entries, nil
}
