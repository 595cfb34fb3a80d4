// Package server exposes a findeck.Session over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/etnz/findeck"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server serves the accounts and the portfolio of a session.
type Server struct {
	session *findeck.Session
	logger  *zap.Logger
	engine  *gin.Engine
}

// New returns a Server for session.
func New(session *findeck.Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{session: session, logger: logger, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLog(logger))
	s.RegisterRoutes(s.engine)
	return s
}

// RegisterRoutes registers the API routes on r.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", s.GetHealth)
	r.GET("/portfolio", s.GetPortfolio)
	r.GET("/accounts", s.ListAccounts)
	r.POST("/accounts", s.CreateAccount)
	r.PATCH("/accounts/:id/balance", s.UpdateBalance)
	r.DELETE("/accounts/:id", s.DeleteAccount)
	r.POST("/refresh", s.Refresh)
	r.GET("/prices", s.GetPrices)
}

// Handler returns the http.Handler of the API.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLog logs every request at debug level.
func requestLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status code: 400 for invalid accounts, 404 for
// unknown ones, 500 otherwise.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, findeck.ErrInvalidAccount):
		status = http.StatusBadRequest
	case errors.Is(err, findeck.ErrAccountNotFound):
		status = http.StatusNotFound
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
