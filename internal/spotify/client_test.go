package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

func TestMain(m *testing.M) {
	InitializeLogger(zap.NewNop())
	os.Exit(m.Run())
}

func newTestClient(baseURL, tokenURL string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost:8080/api/spotify/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: tokenURL,
			},
		},
		appTokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "app-token"}),
		httpClient: &http.Client{Timeout: 2 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		baseURL:    baseURL,
	}
}

func TestSearchTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, "rainy coding night mood", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "12", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"tracks": map[string]any{
				"items": []map[string]any{
					{
						"id":   "t1",
						"name": "Night Drive",
						"uri":  "spotify:track:t1",
						"album": map[string]any{
							"id":     "a1",
							"name":   "Midnight",
							"images": []map[string]any{{"url": "https://img.example.com/a1.jpg"}},
						},
						"artists": []map[string]any{{"id": "ar1", "name": "Neon Fox"}},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, spotifyTokenURL)
	tracks, err := client.SearchTracks(context.Background(), "rainy coding night mood", 12)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	assert.Equal(t, "t1", tracks[0].Id)
	assert.Equal(t, "spotify:track:t1", tracks[0].URI)
	assert.Equal(t, "Neon Fox", tracks[0].Artists[0].Name)
	assert.Equal(t, "https://img.example.com/a1.jpg", tracks[0].Album.Images[0].URL)
}

func TestSearchTracks_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, spotifyTokenURL)
	_, err := client.SearchTracks(context.Background(), "anything", 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestGetUser_TokenExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, spotifyTokenURL)
	_, err := client.GetUser(context.Background(), "stale-token")
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestCreatePlaylist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/spotify-user/playlists", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SoniQ Mix: upbeat", body["name"])
		assert.Equal(t, false, body["public"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "p1",
			"name":          body["name"],
			"external_urls": map[string]any{"spotify": "https://open.spotify.com/playlist/p1"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, spotifyTokenURL)
	playlist, err := client.CreatePlaylist(context.Background(), "user-token", "spotify-user", "SoniQ Mix: upbeat")
	require.NoError(t, err)
	assert.Equal(t, "p1", playlist.Id)
	assert.Equal(t, "https://open.spotify.com/playlist/p1", playlist.ExternalURLs.Spotify)
}

func TestAddTracks_ChunksAtAPILimit(t *testing.T) {
	var batches [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batches = append(batches, body.URIs)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	uris := make([]string, 250)
	for i := range uris {
		uris[i] = "spotify:track:t"
	}

	client := newTestClient(server.URL, spotifyTokenURL)
	require.NoError(t, client.AddTracks(context.Background(), "user-token", "p1", uris))

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
}

func TestExchangeAndRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			assert.Equal(t, "auth-code", r.Form.Get("code"))
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		case "refresh_token":
			assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-2",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		default:
			t.Errorf("unexpected grant_type %q", r.Form.Get("grant_type"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := newTestClient(spotifyAPIURL, server.URL)

	tokens, err := client.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tokens.AccessToken)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)

	refreshed, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", refreshed.AccessToken)
	assert.Equal(t, "", refreshed.RefreshToken, "unrotated refresh token comes back empty")
}
