package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PratikDhanave/telescope-livewire/internal/auth"
	"github.com/PratikDhanave/telescope-livewire/internal/config"
	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/handlers"
	"github.com/PratikDhanave/telescope-livewire/internal/livewire"
	"github.com/PratikDhanave/telescope-livewire/internal/store"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
	"github.com/PratikDhanave/telescope-livewire/internal/watcher"
)

// NewRouter wires the component endpoint, the watchers and the dashboard API.
// Public: /health, /ready, /telescope/metrics, /livewire/update
// Authenticated: /telescope/api/*
func NewRouter(
	cfg config.Config,
	repo store.Repository,
	tel *telescope.Telescope,
	reg *livewire.Registry,
	log *slog.Logger,
) (*gin.Engine, error) {
	policy, err := watcher.ParsePayloadPolicy(cfg.PayloadPolicy)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	d := events.NewDispatcher()
	format := watcher.NewFormatter(cfg.HiddenHeaders, cfg.HiddenParameters, cfg.ResponseSizeLimitKB)

	watcher.NewLivewireWatcher(tel, reg, format, watcher.LivewireOptions{
		PayloadPolicy:   policy,
		RegisterHooks:   cfg.RegisterHooks,
		RoutePattern:    cfg.RoutePattern,
		MechanismMarker: cfg.MechanismMarker,
		Repository:      repo,
		Logger:          log,
	}).Register(d)

	watcher.NewRequestWatcher(tel, format, watcher.RequestOptions{
		IgnorePaths: cfg.IgnorePaths,
		Logger:      log,
	}).Register(d)

	// Registered last so the flush sees every entry the watchers queued.
	d.OnRequestHandled(func(ctx context.Context, _ events.RequestHandled) {
		if err := tel.Store(ctx, repo); err != nil {
			log.ErrorContext(ctx, "store entries", slog.Any("error", err))
		}
	})

	r.Use(events.Capture(d))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the entries repository is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := repo.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/telescope/metrics", gin.WrapH(promhttp.Handler()))

	livewire.RegisterUpdateRoute(r, reg, d, "web")

	// Dashboard API requires X-API-Key.
	api := r.Group("/telescope/api")
	api.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterEntryRoutes(api, repo)
	handlers.RegisterRecordingRoutes(api, tel)

	return r, nil
}
