package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"news-pulse/cmd/api/dto"
	"news-pulse/config"
	"news-pulse/models"
)

type PreferenceStore interface {
	Preferences(ctx context.Context, userID string) (*models.Preferences, error)
	Upsert(ctx context.Context, p *models.Preferences) error
}

func GetPreferencesHandler(store PreferenceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("user_id"))
		p, err := store.Preferences(c.Request.Context(), userID)
		if err != nil {
			config.ErrorWithFields("preferences lookup failed", config.Fields{"user_id": userID, "error": err.Error()})
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "failed to load preferences"})
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// PutPreferencesHandler replaces a user's preferences. Topic weights must lie
// within [0,1].
func PutPreferencesHandler(store PreferenceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "user_id is required"})
			return
		}
		var body dto.PreferencesDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid request body"})
			return
		}
		for topic, w := range body.TopicWeights {
			if w < 0 || w > 1 {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "topic weight out of range: " + topic})
				return
			}
		}
		if err := store.Upsert(c.Request.Context(), body.ToModel(userID)); err != nil {
			config.ErrorWithFields("preferences save failed", config.Fields{"user_id": userID, "error": err.Error()})
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "failed to save preferences"})
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "preferences saved"})
	}
}
