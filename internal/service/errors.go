package service

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error taxonomy. Handlers wrap these with fmt.Errorf("%w: ...") context and
// respondError maps them to HTTP responses. Upstream detail is logged, never
// returned to the caller.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrAuth         = errors.New("invalid credentials")
	ErrNotConnected = errors.New("spotify not connected")
	ErrUpstream     = errors.New("upstream request failed")
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"msg": validationMessage(err)})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
	case errors.Is(err, ErrAuth):
		// Same message whether the email is unknown or the password is
		// wrong, to avoid user enumeration.
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid Credentials"})
	case errors.Is(err, ErrNotConnected):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Spotify not connected"})
	case errors.Is(err, ErrUpstream):
		logger.Error("Upstream error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Something went wrong"})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Something went wrong"})
	}
}

// validationMessage strips the sentinel prefix so the caller sees only the
// field-specific part of a "validation failed: ..." error.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
