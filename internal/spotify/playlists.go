package spotify

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Spotify caps a single add-tracks call at 100 URIs.
const maxTracksPerAdd = 100

// CreatePlaylist creates an empty private playlist in the user's account.
func (c *Client) CreatePlaylist(ctx context.Context, token, spotifyUserID, name string) (*Playlist, error) {
	apiURL := fmt.Sprintf("%s/users/%s/playlists", c.baseURL, spotifyUserID)

	postData := map[string]any{
		"name":        name,
		"description": "Generated by SoniQ",
		"public":      false,
	}

	playlist := &Playlist{}
	if err := c.doRequest(ctx, http.MethodPost, apiURL, token, postData, playlist, http.StatusCreated); err != nil {
		return nil, err
	}
	if playlist.Id == "" {
		return nil, fmt.Errorf("failed to parse playlist ID from response")
	}

	logger.Info("Created playlist",
		zap.String("playlistId", playlist.Id),
		zap.String("name", name))
	return playlist, nil
}

// AddTracks appends the given track URIs to a playlist, chunking to the API
// limit when necessary.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	apiURL := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, playlistID)

	for i := 0; i < len(uris); i += maxTracksPerAdd {
		end := min(i+maxTracksPerAdd, len(uris))
		postData := map[string]any{
			"uris": uris[i:end],
		}
		if err := c.doRequest(ctx, http.MethodPost, apiURL, token, postData, nil, http.StatusCreated); err != nil {
			return fmt.Errorf("failed to add tracks to playlist: %w", err)
		}
	}

	return nil
}
