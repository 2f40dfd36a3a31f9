// Package server keeps the fitted scorer in memory and answers scoring
// requests over HTTP, so callers do not pay the artifact load per request.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/golangast/popcorn/neural/nnu/predict"
)

const (
	// AnalyzePath is the scoring route.
	AnalyzePath = "/api/sentiment/analyze"
	// HealthPath reports liveness.
	HealthPath = "/healthz"
	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-ID"

	shutdownTimeout = 5 * time.Second
)

// Options tunes the HTTP surface.
type Options struct {
	// AllowOrigin is echoed in Access-Control-Allow-Origin; "" disables
	// CORS headers and "*" allows any origin.
	AllowOrigin string
}

// Server serves one immutable scorer.
type Server struct {
	scorer *predict.Scorer
	logger *zap.Logger
	opts   Options
	router *gin.Engine
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// New builds the router around scorer.
func New(scorer *predict.Scorer, logger *zap.Logger, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		scorer: scorer,
		logger: logger,
		opts:   opts,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.cors())
	s.router.GET(HealthPath, s.health)
	s.router.POST(AnalyzePath, s.analyze)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object with a text field"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must not be empty"})
		return
	}
	c.JSON(http.StatusOK, predict.Result{Score: s.scorer.Score(req.Text)})
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := s.opts.AllowOrigin != "" && origin != "" &&
			(s.opts.AllowOrigin == "*" || s.opts.AllowOrigin == origin)
		if allowed {
			c.Header("Access-Control-Allow-Origin", s.opts.AllowOrigin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("serving", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
