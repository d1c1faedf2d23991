package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"soniqserver.com/m/v2/internal/db"
)

// HistoryHandler returns all of a user's history entries, most recent first.
func (s *Service) HistoryHandler(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		respondError(c, fmt.Errorf("%w: userId is required", ErrValidation))
		return
	}

	entries, err := s.store.GetHistory(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, ErrNotFound)
			return
		}
		respondError(c, fmt.Errorf("reading history: %w", err))
		return
	}

	c.JSON(http.StatusOK, entries)
}
