package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"news-pulse/cmd/api/router"
	"news-pulse/config"
	"news-pulse/db"
	"news-pulse/services"
	"news-pulse/trace"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := services.BuildPipeline(ctx, cfg)
	if err != nil {
		config.Logger.Errorf("failed to build pipeline: %v", err)
		os.Exit(1)
	}

	deps := router.Deps{
		Feed:         pipeline.FeedService(cfg, "api"),
		CacheBackend: cfg.Cache.Backend,
	}
	if pipeline.Preferences != nil {
		deps.Preferences = pipeline.Preferences
		deps.Ping = db.Ping
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, trace.HeaderSpanID},
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           c.Handler(router.New(deps)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		config.InfoWithFields("api listening", config.Fields{"addr": cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Errorf("api server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	config.Logger.Info("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.Logger.Errorf("api shutdown error: %v", err)
	}
	pipeline.Close(shutdownCtx)
}
