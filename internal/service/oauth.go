package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"soniqserver.com/m/v2/internal/db"
)

// stateTokenTTL bounds how long an authorization redirect stays valid.
const stateTokenTTL = 10 * time.Minute

// SpotifyLoginHandler starts the authorization-code flow. The state
// parameter is a signed, time-bound token carrying the user id and a nonce,
// so the callback can correlate without a server-side session and a forged
// state cannot bind someone else's account.
func (s *Service) SpotifyLoginHandler(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		respondError(c, fmt.Errorf("%w: userId is required", ErrValidation))
		return
	}

	if _, err := s.store.GetUserByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, ErrNotFound)
			return
		}
		respondError(c, fmt.Errorf("looking up user: %w", err))
		return
	}

	state, err := s.signState(userID)
	if err != nil {
		respondError(c, fmt.Errorf("signing state token: %w", err))
		return
	}

	c.Redirect(http.StatusFound, s.catalog.AuthCodeURL(state))
}

// SpotifyCallbackHandler finishes the flow. Every failure redirects to the
// frontend error route; no JSON error crosses this boundary.
func (s *Service) SpotifyCallbackHandler(c *gin.Context) {
	failureURL := s.config.FrontendURI + "/user?error=spotify_failed"
	successURL := s.config.FrontendURI + "/user?spotify=connected"

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		logger.Warn("Spotify callback missing code or state")
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	userID, err := s.parseState(state)
	if err != nil {
		logger.Warn("Invalid state token on Spotify callback", zap.Error(err))
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	tokens, err := s.catalog.Exchange(c.Request.Context(), code)
	if err != nil {
		s.metrics.incUpstreamErrors()
		logger.Error("Authorization code exchange failed",
			zap.String("userId", userID),
			zap.Error(err))
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	if err := s.store.SaveSpotifyTokens(c.Request.Context(), userID, tokens.AccessToken, tokens.RefreshToken); err != nil {
		logger.Error("Failed to store Spotify tokens",
			zap.String("userId", userID),
			zap.Error(err))
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	logger.Info("Spotify account connected", zap.String("userId", userID))
	c.Redirect(http.StatusFound, successURL)
}

func (s *Service) signState(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"nonce": uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(stateTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) parseState(state string) (string, error) {
	token, err := jwt.Parse(state, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing state token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid state token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("state token missing subject")
	}
	return sub, nil
}
