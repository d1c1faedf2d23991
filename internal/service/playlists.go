package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soniqserver.com/m/v2/internal/db"
	"soniqserver.com/m/v2/internal/spotify"
)

// searchLimit caps a generated playlist at 12 tracks.
const searchLimit = 12

// placeholderDuration is what the frontend has always displayed instead of
// the real track length. Changing it would break stored history entries.
const placeholderDuration = "3:00"

type generateRequest struct {
	Mood   string `json:"mood"`
	UserID string `json:"userId"`
}

type exportRequest struct {
	UserID string   `json:"userId"`
	Mood   string   `json:"mood"`
	Tracks []string `json:"tracks"`
}

// GeneratePlaylistHandler turns a free-text mood into up to 12 track
// summaries and, when a userId is supplied, records the result in that
// user's history. History failures do not fail the request.
func (s *Service) GeneratePlaylistHandler(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}

	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		respondError(c, fmt.Errorf("%w: Mood is required", ErrValidation))
		return
	}

	start := time.Now()
	tracks, err := s.catalog.SearchTracks(c.Request.Context(), mood+" mood", searchLimit)
	s.metrics.observeSearchDuration(time.Since(start).Seconds())
	if err != nil {
		s.metrics.incUpstreamErrors()
		respondError(c, fmt.Errorf("%w: searching tracks: %v", ErrUpstream, err))
		return
	}

	songs := normalizeTracks(tracks)
	s.metrics.incPlaylistsGenerated()

	if req.UserID != "" {
		entry := &db.HistoryEntry{
			Mood:  mood,
			Date:  time.Now().UTC(),
			Songs: songs,
		}
		if err := s.store.AddHistoryEntry(c.Request.Context(), req.UserID, entry); err != nil {
			// Best effort: the caller still gets the playlist.
			s.metrics.incHistoryWriteErrors()
			logger.Warn("Failed to save history entry",
				zap.String("userId", req.UserID),
				zap.String("mood", mood),
				zap.Error(err))
		} else {
			s.metrics.incHistoryWrites()
		}
	}

	c.JSON(http.StatusOK, songs)
}

// CreateSpotifyPlaylistHandler exports a generated track list into the
// user's Spotify account and returns the shareable playlist URL.
func (s *Service) CreateSpotifyPlaylistHandler(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if req.UserID == "" {
		respondError(c, fmt.Errorf("%w: userId is required", ErrValidation))
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, ErrNotFound)
			return
		}
		respondError(c, fmt.Errorf("looking up user: %w", err))
		return
	}
	if !user.SpotifyConnected || user.SpotifyAccessToken == "" {
		respondError(c, ErrNotConnected)
		return
	}

	name := fmt.Sprintf("SoniQ Mix: %s", req.Mood)
	uris := filterTrackURIs(req.Tracks)

	var playlist *spotify.Playlist
	err = s.withSpotifyToken(ctx, user, func(token string) error {
		profile, err := s.catalog.GetUser(ctx, token)
		if err != nil {
			return err
		}
		playlist, err = s.catalog.CreatePlaylist(ctx, token, profile.Id, name)
		if err != nil {
			return err
		}
		if len(uris) > 0 {
			return s.catalog.AddTracks(ctx, token, playlist.Id, uris)
		}
		return nil
	})
	if err != nil {
		s.metrics.incUpstreamErrors()
		respondError(c, fmt.Errorf("%w: exporting playlist: %v", ErrUpstream, err))
		return
	}

	s.metrics.incPlaylistsExported()
	logger.Info("Exported playlist to Spotify",
		zap.String("userId", user.ID),
		zap.String("playlistId", playlist.Id),
		zap.Int("tracks", len(uris)))

	c.JSON(http.StatusOK, gin.H{
		"msg":         "Playlist created",
		"playlistUrl": playlist.ExternalURLs.Spotify,
	})
}

// withSpotifyToken runs fn with the user's access token, refreshing and
// retrying once when Spotify reports it expired. A rotated token pair is
// persisted before the retry.
func (s *Service) withSpotifyToken(ctx context.Context, user *db.User, fn func(token string) error) error {
	err := fn(user.SpotifyAccessToken)
	if !errors.Is(err, spotify.ErrTokenExpired) || user.SpotifyRefreshToken == "" {
		return err
	}

	tokens, refreshErr := s.catalog.Refresh(ctx, user.SpotifyRefreshToken)
	if refreshErr != nil {
		logger.Warn("Token refresh failed", zap.String("userId", user.ID), zap.Error(refreshErr))
		return err
	}

	user.SpotifyAccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		user.SpotifyRefreshToken = tokens.RefreshToken
	}
	if saveErr := s.store.SaveSpotifyTokens(ctx, user.ID, user.SpotifyAccessToken, user.SpotifyRefreshToken); saveErr != nil {
		logger.Warn("Failed to persist refreshed tokens", zap.String("userId", user.ID), zap.Error(saveErr))
	}

	return fn(user.SpotifyAccessToken)
}

// normalizeTracks maps catalog results to the app-owned summary shape.
func normalizeTracks(tracks []*spotify.Track) []db.TrackSummary {
	songs := make([]db.TrackSummary, 0, len(tracks))
	for _, track := range tracks {
		if track == nil || track.Id == "" {
			continue
		}
		songs = append(songs, db.TrackSummary{
			ID:       track.Id,
			URI:      track.URI,
			Title:    track.Name,
			Artist:   joinArtists(track.Artists),
			Cover:    firstImageURL(track.Album),
			Duration: placeholderDuration,
		})
	}
	return songs
}

func joinArtists(artists []*spotify.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist != nil && artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	return strings.Join(names, ", ")
}

func firstImageURL(album *spotify.Album) string {
	if album == nil || len(album.Images) == 0 {
		return ""
	}
	return album.Images[0].URL
}

// filterTrackURIs drops empty URIs; summaries stored without one are not
// exportable.
func filterTrackURIs(tracks []string) []string {
	uris := make([]string, 0, len(tracks))
	for _, uri := range tracks {
		if strings.TrimSpace(uri) != "" {
			uris = append(uris, uri)
		}
	}
	return uris
}
