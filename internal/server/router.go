// Package server assembles the HTTP surface over the content stores.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"site-content-store/internal/auth"
	"site-content-store/internal/document"
	"site-content-store/internal/event"
	"site-content-store/internal/locale"
	"site-content-store/internal/logging"
	"site-content-store/internal/metrics"
	"site-content-store/internal/middleware"
	"site-content-store/internal/story"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	Environment     string
	FrontendAddress string
	Locales         *locale.Table
	Backend         *Backend
	Auth            *auth.Handler
	Issuer          *auth.Issuer
	Views           story.ViewRecorder
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

func NewRouter(opts Options) *gin.Engine {
	documentHandler := document.NewHandler(document.NewService(opts.Backend.Documents, opts.Locales), opts.Locales)
	storyHandler := story.NewHandler(story.NewService(opts.Backend.Stories, opts.Locales), opts.Locales, opts.Views)
	eventHandler := event.NewHandler(event.NewService(opts.Backend.Events, opts.Locales), opts.Locales)
	adminAuth := &middleware.AdminAuth{Verifier: opts.Issuer}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(middleware.ErrorHandler(logging.For(opts.Logger, logging.ChannelHTTP)))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Document-ID", "Locale"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if opts.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{opts.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// public read routes
	router.GET("/api/content", documentHandler.ShowContent)
	router.GET("/stories", storyHandler.ListSummaries)
	router.GET("/stories/:slug", storyHandler.Show)
	router.GET("/static-paths/stories", storyHandler.ListSlugs)
	router.GET("/events", eventHandler.ListAll)
	router.GET("/events/:slug", eventHandler.Show)
	router.GET("/locales", listLocales(opts.Locales))

	// admin routes
	router.POST("/admin/login", opts.Auth.Login)
	admin := router.Group("/admin", adminAuth.Middleware())
	admin.PUT("/documents/:id", documentHandler.Save)
	admin.POST("/stories", storyHandler.Create)
	admin.PUT("/stories/:slug/variants/:locale", storyHandler.UpsertVariant)
	admin.GET("/stories/suggest-slug", storyHandler.SuggestSlug)
	admin.POST("/events", eventHandler.Create)
	admin.PUT("/events/:slug", eventHandler.Update)

	// operations
	router.GET("/healthz", healthz(opts.Backend))
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	return router
}

type localeEntry struct {
	Code locale.Locale `json:"code"`
	Icon string        `json:"icon"`
}

func listLocales(table *locale.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := make([]localeEntry, 0, len(table.Supported()))
		for _, l := range table.Supported() {
			entries = append(entries, localeEntry{Code: l, Icon: table.Icon(l)})
		}
		c.JSON(http.StatusOK, gin.H{"default": table.Default(), "locales": entries})
	}
}

func healthz(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := backend.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
