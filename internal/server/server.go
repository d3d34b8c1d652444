// Package server exposes ingestion, matching and review over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studiops/bankrecon/internal/buildinfo"
	"github.com/studiops/bankrecon/internal/config"
	"github.com/studiops/bankrecon/internal/ingest"
	"github.com/studiops/bankrecon/internal/matching"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/store"
)

// Reader is the read side the API lists and shows records from.
type Reader interface {
	ListImports(ctx context.Context, limit int) ([]model.Import, error)
	GetImport(ctx context.Context, id string) (*model.Import, error)
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]model.BankTransaction, error)
	GetTransaction(ctx context.Context, id string) (*model.BankTransaction, error)
}

// Server holds the HTTP handlers' dependencies.
type Server struct {
	ingest   *ingest.Service
	engine   *matching.Engine
	reader   Reader
	cfg      config.ServerConfig
	auth     config.AuthConfig
	maxBytes int64
	logger   *slog.Logger
}

// Deps wires a Server.
type Deps struct {
	Ingest   *ingest.Service
	Engine   *matching.Engine
	Reader   Reader
	Server   config.ServerConfig
	Auth     config.AuthConfig
	MaxBytes int64
	Logger   *slog.Logger
}

// New creates a Server.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ingest:   d.Ingest,
		engine:   d.Engine,
		reader:   d.Reader,
		cfg:      d.Server,
		auth:     d.Auth,
		maxBytes: d.MaxBytes,
		logger:   logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Mode != "" {
		gin.SetMode(s.cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", actorHeader},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)

	api := r.Group("/api", s.actor())
	api.POST("/imports", s.createImport)
	api.GET("/imports", s.listImports)
	api.GET("/imports/:id", s.getImport)
	api.GET("/transactions", s.listTransactions)
	api.GET("/transactions/:id", s.getTransaction)
	api.POST("/transactions/:id/approve", s.approve)
	api.POST("/transactions/:id/reject", s.reject)
	api.POST("/transactions/:id/ignore", s.ignore)
	api.POST("/transactions/:id/match", s.manualMatch)
	api.POST("/matching/run", s.runMatching)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.Version, "commit": buildinfo.Commit})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"actor", c.GetString(actorKey),
		)
	}
}
