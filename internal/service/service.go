package service

import (
	"context"
	"fmt"
	"os"

	"soniqserver.com/m/v2/internal/db"
	"soniqserver.com/m/v2/internal/spotify"
)

// Store is the persistence surface the handlers need. *db.DB implements it.
type Store interface {
	SaveUser(ctx context.Context, user *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByID(ctx context.Context, id string) (*db.User, error)
	SaveSpotifyTokens(ctx context.Context, userID, accessToken, refreshToken string) error
	AddHistoryEntry(ctx context.Context, userID string, entry *db.HistoryEntry) error
	GetHistory(ctx context.Context, userID string) ([]*db.HistoryEntry, error)
}

// Catalog is the external music catalog surface. *spotify.Client implements it.
type Catalog interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]*spotify.Track, error)
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*spotify.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*spotify.Tokens, error)
	GetUser(ctx context.Context, token string) (*spotify.User, error)
	CreatePlaylist(ctx context.Context, token, spotifyUserID, name string) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

type Config struct {
	Port        string
	FrontendURI string
	JWTSecret   string
}

// LoadConfig reads the service configuration from the environment.
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:        os.Getenv("PORT"),
		FrontendURI: os.Getenv("FRONTEND_URI"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.FrontendURI == "" {
		config.FrontendURI = "http://localhost:3000"
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return config, nil
}

// Service carries the application state for all HTTP handlers.
type Service struct {
	store   Store
	catalog Catalog
	config  *Config
	metrics *Metrics
	mailer  *Mailer
}

// New builds a Service. metrics and mailer may be nil; the corresponding
// side effects are skipped.
func New(store Store, catalog Catalog, config *Config, metrics *Metrics, mailer *Mailer) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		config:  config,
		metrics: metrics,
		mailer:  mailer,
	}
}
