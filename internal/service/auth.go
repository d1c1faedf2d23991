package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"soniqserver.com/m/v2/internal/db"
)

const sessionTokenTTL = 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func userResponse(user *db.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"spotifyConnected": user.SpotifyConnected,
	}
}

// RegisterHandler creates a new account and returns a session token.
func (s *Service) RegisterHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		respondError(c, fmt.Errorf("%w: name, email and password are required", ErrValidation))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, fmt.Errorf("hashing password: %w", err))
		return
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.SaveUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "User already exists"})
			return
		}
		respondError(c, fmt.Errorf("saving user: %w", err))
		return
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		respondError(c, fmt.Errorf("issuing session token: %w", err))
		return
	}

	s.sendWelcomeEmail(user)

	logger.Info("Registered new user", zap.String("userId", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// LoginHandler authenticates an existing account. Unknown email and wrong
// password produce the same response.
func (s *Service) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respondError(c, fmt.Errorf("%w: email and password are required", ErrValidation))
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, ErrAuth)
			return
		}
		respondError(c, fmt.Errorf("looking up user: %w", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, ErrAuth)
		return
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		respondError(c, fmt.Errorf("issuing session token: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// GoogleLoginHandler upserts an account from an external identity. New
// accounts get a random unusable password credential.
func (s *Service) GoogleLoginHandler(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		respondError(c, fmt.Errorf("%w: email and name are required", ErrValidation))
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), email)
	if errors.Is(err, db.ErrNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if herr != nil {
			respondError(c, fmt.Errorf("hashing password: %w", herr))
			return
		}
		user = &db.User{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
		}
		if err := s.store.SaveUser(c.Request.Context(), user); err != nil {
			respondError(c, fmt.Errorf("saving user: %w", err))
			return
		}
		logger.Info("Created user from Google identity", zap.String("userId", user.ID))
	} else if err != nil {
		respondError(c, fmt.Errorf("looking up user: %w", err))
		return
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		respondError(c, fmt.Errorf("issuing session token: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (s *Service) issueSessionToken(user *db.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) sendWelcomeEmail(user *db.User) {
	if s.mailer == nil {
		return
	}
	go func(name, email string) {
		if err := s.mailer.SendWelcome(name, email); err != nil {
			logger.Warn("Failed to send welcome email",
				zap.String("email", email),
				zap.Error(err))
		}
	}(user.Name, user.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
