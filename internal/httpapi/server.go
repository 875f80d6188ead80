// Package httpapi exposes the engine over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/engine"
)

// Options configures the router.
type Options struct {
	CORSOrigins []string
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(eng *engine.Engine, cat *catalog.Catalog, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "accept", "origin", "Cache-Control", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"service":         "pylearn",
			"catalog_version": cat.Version(),
			"timestamp":       time.Now().UTC(),
		})
	})

	var metricsHandler http.Handler
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	} else {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	h := NewHandler(eng, cat)
	api := r.Group("/api/v1")
	{
		api.POST("/learners", h.Register)
		api.GET("/learners/:id", h.GetLearner)
		api.DELETE("/learners/:id", h.DeleteLearner)
		api.POST("/learners/:id/events", h.ApplyEvent)
		api.GET("/learners/:id/events", h.EventLog)
		api.GET("/learners/:id/dashboard", h.Dashboard)
		api.GET("/learners/:id/path", h.LearningPath)
		api.GET("/learners/:id/lessons/:lesson/micro", h.MicrolearningLesson)
		api.GET("/learners/:id/reviews", h.DueReviews)
		api.GET("/learners/:id/achievements", h.Achievements)

		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/daily-challenge", h.DailyChallenge)
		api.GET("/catalog", h.Catalog)
	}
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
