// Package server exposes the RFM engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/logger"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig listens on :8080 with conservative timeouts.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	data       *Dataset
	log        *logger.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New creates a new API server over one dataset.
func New(cfg Config, data *Dataset, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{config: cfg, data: data, log: log.Component("server")}
}

// Handler returns the gin router, building it on first use.
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		s.router = gin.New()
		s.router.Use(recovery(s.log), requestLogger(s.log))
		s.setupRoutes(s.router)
	}
	return s.router
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/healthz", s.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/rfm", s.getRFM)
		v1.GET("/segments", s.getSegments)
		v1.GET("/breakdown", s.getBreakdown)
		v1.GET("/trend", s.getTrend)
		v1.GET("/overview", s.getOverview)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.log.WithField("address", s.config.Addr).WithField("dataset", s.data.Path).Info("starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}
