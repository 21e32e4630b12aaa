// Package httpapi exposes the dashboard REST surface over gin: profile
// and float listings, stats, CSV export, the lazy measurement read, and
// the mock chat passthrough.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floatchat/argo-data-service/internal/config"
	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/store"
)

// ProfileStore is the read surface the API needs from storage.
type ProfileStore interface {
	Ping(ctx context.Context) error
	GetProfile(ctx context.Context, id int64) (domain.Profile, error)
	ListProfiles(ctx context.Context, q store.ProfileQuery) ([]domain.Profile, error)
	ListFloats(ctx context.Context, platformNumber string, limit int) ([]domain.Float, error)
	CountStats(ctx context.Context) (store.Stats, error)
}

// MeasurementReader serves a profile's depth levels, lazily fetching on
// a miss.
type MeasurementReader interface {
	MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error)
}

// Server bundles the router and its dependencies.
type Server struct {
	cfg          config.Config
	store        ProfileStore
	measurements MeasurementReader
	logger       *slog.Logger
	engine       *gin.Engine
}

// New constructs a server with routes and middleware registered.
func New(cfg config.Config, st ProfileStore, measurements MeasurementReader, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg.Origins()))

	s := &Server{
		cfg:          cfg,
		store:        st,
		measurements: measurements,
		logger:       logger,
		engine:       engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", "addr", s.cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/chat/query", s.handleChatQuery)

	argo := api.Group("/argo")
	{
		argo.GET("/profiles", s.handleListProfiles)
		argo.GET("/profiles/:id/measurements", s.handleProfileMeasurements)
		argo.GET("/floats", s.handleListFloats)
		argo.GET("/stats", s.handleStats)
		argo.GET("/export", s.handleExportCSV)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
