package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// SearchTracks runs a track search with the app-level client-credentials
// token and returns up to limit results.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]*Track, error) {
	token, err := c.appTokens.Token()
	if err != nil {
		logger.Error("Error obtaining client-credentials token", zap.Error(err))
		return nil, fmt.Errorf("error obtaining app token: %w", err)
	}

	apiURL := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	var result searchResponse
	if err := c.doRequest(ctx, http.MethodGet, apiURL, token.AccessToken, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	if result.Tracks == nil {
		logger.Error("Malformed search response from Spotify", zap.String("query", query))
		return nil, fmt.Errorf("malformed search response: missing tracks object")
	}

	tracks := make([]*Track, 0, len(result.Tracks.Items))
	for i := range result.Tracks.Items {
		tracks = append(tracks, &result.Tracks.Items[i])
	}
	return tracks, nil
}
