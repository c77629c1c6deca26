package router

import (
	"context"

	"github.com/gin-gonic/gin"

	"news-pulse/cmd/api/handlers"
	"news-pulse/cmd/api/middleware"
)

// Deps are the collaborators the routes are bound to. Preferences and Ping
// may be nil; preference routes are registered only with a store.
type Deps struct {
	Feed         handlers.FeedProvider
	Preferences  handlers.PreferenceStore
	CacheBackend string
	Ping         func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", handlers.HealthHandler(d.CacheBackend, d.Ping))

	api := r.Group("/api/v1")
	{
		api.GET("/feed", handlers.GetFeedHandler(d.Feed))
		api.POST("/feed", handlers.PostFeedHandler(d.Feed))
		api.GET("/sources", handlers.ListSourcesHandler(d.Feed))

		if d.Preferences != nil {
			api.GET("/users/:user_id/preferences", handlers.GetPreferencesHandler(d.Preferences))
			api.PUT("/users/:user_id/preferences", handlers.PutPreferencesHandler(d.Preferences))
		}
	}

	return r
}
