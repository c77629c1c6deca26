package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"news-pulse/cmd/api/dto"
	"news-pulse/models"
	"news-pulse/services"
)

// FeedProvider is the part of services.FeedService the handlers use.
type FeedProvider interface {
	GetFeed(ctx context.Context, req models.FeedRequest) services.FeedResult
	Sources() []models.Source
}

// GetFeedHandler serves GET /feed. Topics may be comma-separated or repeated.
func GetFeedHandler(svc FeedProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := models.FeedRequest{
			Mode:     models.FeedMode(strings.ToLower(c.DefaultQuery("mode", string(models.ModeGeneral)))),
			Language: c.Query("language"),
			Topics:   models.ParseTopics(strings.Join(c.QueryArray("topics"), ",")),
			UserID:   c.Query("user_id"),
			Location: models.Location{
				Country: c.Query("country"),
				City:    c.Query("city"),
				Region:  c.Query("region"),
			},
		}
		if raw := c.Query("page_size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "page_size must be a non-negative integer"})
				return
			}
			req.PageSize = n
		}
		serveFeed(c, svc, req)
	}
}

// PostFeedHandler serves POST /feed with a JSON FeedRequestDTO body.
func PostFeedHandler(svc FeedProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.FeedRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid request body"})
			return
		}
		if body.PageSize < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "pageSize must be non-negative"})
			return
		}
		req := body.ToModel()
		if req.Mode == "" {
			req.Mode = models.ModeGeneral
		}
		serveFeed(c, svc, req)
	}
}

func serveFeed(c *gin.Context, svc FeedProvider, req models.FeedRequest) {
	switch req.Mode {
	case models.ModeGeneral, models.ModePersonalized:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "mode must be general or personalized"})
		return
	}
	res := svc.GetFeed(c.Request.Context(), req)
	c.JSON(http.StatusOK, dto.NewFeedResponse(res.Snapshot, res.Hint))
}

func ListSourcesHandler(svc FeedProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sources": dto.NewSourceList(svc.Sources())})
	}
}
