package spotify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// AuthCodeURL builds the authorization redirect for the given opaque state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a user token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*Tokens, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Error("Error exchanging authorization code", zap.Error(err))
		return nil, fmt.Errorf("error exchanging authorization code: %w", err)
	}

	return &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// Refresh obtains a fresh access token from a stored refresh token. Spotify
// only rotates the refresh token occasionally, so RefreshToken may come back
// empty; callers should keep the old one in that case.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		logger.Error("Error refreshing user token", zap.Error(err))
		return nil, fmt.Errorf("error refreshing token: %w", err)
	}

	tokens := &Tokens{AccessToken: token.AccessToken}
	if token.RefreshToken != refreshToken {
		tokens.RefreshToken = token.RefreshToken
	}
	return tokens, nil
}
