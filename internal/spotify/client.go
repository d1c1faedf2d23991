package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAPIURL   = "https://api.spotify.com/v1"
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	requestTimeout = 10 * time.Second

	// Spotify rate-limits per rolling 30s window; 100 requests per minute
	// keeps us well under it.
	rateLimit = 100
)

// ErrTokenExpired is returned when Spotify rejects the user access token.
// Callers holding a refresh token may retry after refreshing.
var ErrTokenExpired = errors.New("spotify: access token expired")

var (
	config     *Config
	configOnce sync.Once
	configErr  error
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func GetConfig() (*Config, error) {
	configOnce.Do(func() {
		config, configErr = loadConfig()
	})
	return config, configErr
}

func loadConfig() (*Config, error) {
	config := &Config{
		ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("REDIRECT_URI"),
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}

	return config, nil
}

// Client talks to the Spotify Web API. Search uses an app-level
// client-credentials token (cached and refreshed by the token source);
// everything else takes a per-user access token from the caller.
type Client struct {
	oauth      *oauth2.Config
	appTokens  oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

func NewClient(cfg *Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyTokenURL,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
			"user-read-email",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Client{
		oauth:      oauthCfg,
		appTokens:  creds.TokenSource(tokenCtx),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/rateLimit), rateLimit),
		baseURL:    spotifyAPIURL,
	}
}

// doRequest performs one authenticated API call and decodes the JSON response
// into result. Upstream failure detail is logged here, not propagated.
func (c *Client) doRequest(ctx context.Context, method, url, token string, body any, result any, wantStatus int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Error making request to Spotify", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrTokenExpired
	}
	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("Error response from Spotify server",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("url", url),
			zap.ByteString("body", bodyBytes))
		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("Rate limited by Spotify",
				zap.String("retryAfter", resp.Header.Get("Retry-After")),
				zap.String("url", url))
		}
		return fmt.Errorf("server returned status code %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			logger.Error("Error decoding Spotify response body", zap.Error(err), zap.String("url", url))
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}
