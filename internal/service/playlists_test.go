package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soniqserver.com/m/v2/internal/db"
	"soniqserver.com/m/v2/internal/spotify"
)

func searchResults() []*spotify.Track {
	return []*spotify.Track{
		{
			Id:   "t1",
			Name: "Night Drive",
			URI:  "spotify:track:t1",
			Album: &spotify.Album{
				Id:     "a1",
				Name:   "Midnight",
				Images: []spotify.Image{{URL: "https://img.example.com/a1.jpg"}, {URL: "https://img.example.com/a1-small.jpg"}},
			},
			Artists: []*spotify.Artist{{Id: "ar1", Name: "Neon Fox"}, {Id: "ar2", Name: "Glass Tide"}},
		},
		{
			Id:      "t2",
			Name:    "Quiet Rain",
			URI:     "spotify:track:t2",
			Album:   &spotify.Album{Id: "a2", Name: "Window"},
			Artists: []*spotify.Artist{{Id: "ar3", Name: "Solo Artist"}},
		},
	}
}

func generateRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.POST("/api/generate-playlist", svc.GeneratePlaylistHandler)
	router.GET("/api/history/:userId", svc.HistoryHandler)
	return router
}

func TestGeneratePlaylist_EmptyMood(t *testing.T) {
	for _, mood := range []string{"", "   ", "\t\n"} {
		store := newFakeStore()
		catalog := &fakeCatalog{}
		router := generateRouter(newTestService(store, catalog))

		w := performRequest(router, http.MethodPost, "/api/generate-playlist",
			gin.H{"mood": mood, "userId": "u1"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, catalog.searchCalls, "no upstream call for mood %q", mood)
		assert.Empty(t, store.history, "no history mutation for mood %q", mood)
	}
}

func TestGeneratePlaylist_Normalization(t *testing.T) {
	catalog := &fakeCatalog{
		searchFn: func(context.Context, string, int) ([]*spotify.Track, error) {
			return searchResults(), nil
		},
	}
	router := generateRouter(newTestService(newFakeStore(), catalog))

	w := performRequest(router, http.MethodPost, "/api/generate-playlist",
		gin.H{"mood": "late night drive"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "late night drive mood", catalog.lastQuery)
	assert.Equal(t, 12, catalog.lastLimit)

	var songs []db.TrackSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &songs))
	require.Len(t, songs, 2)

	assert.Equal(t, "t1", songs[0].ID)
	assert.Equal(t, "spotify:track:t1", songs[0].URI)
	assert.Equal(t, "Night Drive", songs[0].Title)
	assert.Equal(t, "Neon Fox, Glass Tide", songs[0].Artist)
	assert.Equal(t, "https://img.example.com/a1.jpg", songs[0].Cover)
	assert.Equal(t, "3:00", songs[0].Duration)

	assert.Equal(t, "Solo Artist", songs[1].Artist)
	assert.Equal(t, "", songs[1].Cover, "album without images yields empty cover")
	assert.Equal(t, "3:00", songs[1].Duration)
}

func TestGeneratePlaylist_HistorySaved(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	catalog := &fakeCatalog{
		searchFn: func(context.Context, string, int) ([]*spotify.Track, error) {
			return searchResults(), nil
		},
	}
	svc := newTestService(store, catalog)
	router := generateRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/generate-playlist",
		gin.H{"mood": "rainy coding night", "userId": "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	var generated []db.TrackSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generated))

	hw := performRequest(router, http.MethodGet, "/api/history/u1", nil)
	require.Equal(t, http.StatusOK, hw.Code)

	var entries []db.HistoryEntry
	require.NoError(t, json.Unmarshal(hw.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)

	assert.Equal(t, "rainy coding night", entries[0].Mood)
	assert.Equal(t, generated, entries[0].Songs, "history songs match the generated response")
}

func TestGeneratePlaylist_NewestEntryFirst(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}
	catalog := &fakeCatalog{
		searchFn: func(context.Context, string, int) ([]*spotify.Track, error) {
			return searchResults(), nil
		},
	}
	router := generateRouter(newTestService(store, catalog))

	for _, mood := range []string{"first mood", "second mood"} {
		w := performRequest(router, http.MethodPost, "/api/generate-playlist",
			gin.H{"mood": mood, "userId": "u1"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	entries, err := store.GetHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second mood", entries[0].Mood)
	assert.Equal(t, "first mood", entries[1].Mood)
}

func TestGeneratePlaylist_HistoryFailureStillReturnsTracks(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}
	store.historyErr = errors.New("connection reset")
	catalog := &fakeCatalog{
		searchFn: func(context.Context, string, int) ([]*spotify.Track, error) {
			return searchResults(), nil
		},
	}
	router := generateRouter(newTestService(store, catalog))

	w := performRequest(router, http.MethodPost, "/api/generate-playlist",
		gin.H{"mood": "upbeat", "userId": "u1"})

	assert.Equal(t, http.StatusOK, w.Code)
	var songs []db.TrackSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &songs))
	assert.Len(t, songs, 2)
}

func TestGeneratePlaylist_UpstreamError(t *testing.T) {
	catalog := &fakeCatalog{
		searchFn: func(context.Context, string, int) ([]*spotify.Track, error) {
			return nil, errors.New("status 503 from api.spotify.com")
		},
	}
	router := generateRouter(newTestService(newFakeStore(), catalog))

	w := performRequest(router, http.MethodPost, "/api/generate-playlist",
		gin.H{"mood": "upbeat"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "spotify.com", "upstream detail must not leak")
}

func TestHistory_UnknownUser(t *testing.T) {
	router := generateRouter(newTestService(newFakeStore(), &fakeCatalog{}))

	w := performRequest(router, http.MethodGet, "/api/history/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory_EmptyListForKnownUser(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}
	router := generateRouter(newTestService(store, &fakeCatalog{}))

	w := performRequest(router, http.MethodGet, "/api/history/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestNormalizeTracks_SkipsTracksWithoutID(t *testing.T) {
	tracks := []*spotify.Track{
		nil,
		{Id: "", Name: "ghost"},
		{Id: "t1", Name: "Real", URI: "spotify:track:t1"},
	}

	songs := normalizeTracks(tracks)
	require.Len(t, songs, 1)
	assert.Equal(t, "Real", songs[0].Title)
}

func TestFilterTrackURIs(t *testing.T) {
	uris := filterTrackURIs([]string{"spotify:track:a", "", "  ", "spotify:track:b"})
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, uris)
}
