package smarthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smartorder/internal/engine"
	"smartorder/internal/logger"
	"smartorder/internal/store"
	"smartorder/internal/store/auditlog"

	"github.com/gin-gonic/gin"
)

// Server exposes the recommendation pipeline and the ticket history over
// HTTP.
type Server struct {
	addr    string
	engine  *engine.Engine
	tickets store.TicketStore
	audit   *auditlog.Store
	router  *gin.Engine
}

// Config describes the server dependencies. Tickets and Audit are optional;
// without them the recommend endpoint still works but nothing is persisted.
type Config struct {
	Addr    string
	Engine  *engine.Engine
	Tickets store.TicketStore
	Audit   *auditlog.Store
}

// NewServer builds the HTTP server and registers the routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8085"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		addr:    cfg.Addr,
		engine:  cfg.Engine,
		tickets: cfg.Tickets,
		audit:   cfg.Audit,
		router:  router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/recommend", s.handleRecommend)
	api.GET("/tickets", s.handleListTickets)
	api.GET("/tickets/:id", s.handleGetTicket)
	api.GET("/audit", s.handleAudit)

	s.router.GET("/admin/stats", s.handleStats)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Start serves HTTP until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Infof("HTTP server listening on %s", s.addr)
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
