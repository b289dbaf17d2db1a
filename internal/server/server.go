// internal/server/server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/orgoj/logbridge"
	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/handler"
	"github.com/orgoj/logbridge/internal/iputil"
	"github.com/orgoj/logbridge/internal/validation"
	"github.com/orgoj/logbridge/internal/version"
)

// Engine is the part of a logging context driven by the admin API.
type Engine interface {
	Logger(name string) *logbridge.Logger
	Match(pattern string) ([]*logbridge.Logger, error)
	SetLevels(pattern string, l logbridge.Level) (int, error)
	Flush() error
	Stats() []handler.Stats
}

// StatsSource provides the counters of a receiver.
type StatsSource interface {
	Stats() logbridge.ReceiverStats
}

// Dependencies holds the dependencies needed by the server.
type Dependencies struct {
	Config   *config.MonitorConfig
	Engine   Engine
	Receiver StatsSource       // optional
	Log      *logbridge.Logger // optional, requests and admin actions
}

// Server is the admin HTTP API of the log monitor.
type Server struct {
	router   *gin.Engine
	listen   string
	engine   Engine
	receiver StatsSource
	log      *logbridge.Logger
	allow    *iputil.AllowList

	limiters   map[string]*rate.Limiter
	limiterMu  sync.Mutex
	rateLimit  rate.Limit
	burstLimit int

	srvMu   sync.Mutex
	httpSrv *http.Server
}

// NewServer creates the server and its routes.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		panic("server: Config dependency cannot be nil")
	}
	if deps.Engine == nil {
		panic("server: Engine dependency cannot be nil")
	}
	admin := deps.Config.Admin

	allow, err := iputil.NewAllowList(admin.AllowedIPs)
	if err != nil {
		return nil, fmt.Errorf("admin.allowed_ips: %w", err)
	}

	switch admin.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.New(),
		listen:   admin.Listen,
		engine:   deps.Engine,
		receiver: deps.Receiver,
		log:      deps.Log,
		allow:    allow,
		limiters: make(map[string]*rate.Limiter),
	}
	if admin.RateLimit > 0 {
		// Requests per minute to requests per second, bursts up to the per-minute limit
		s.rateLimit = rate.Limit(float64(admin.RateLimit) / 60.0)
		s.burstLimit = admin.RateLimit
	} else {
		s.rateLimit = rate.Inf
	}

	s.router.Use(gin.Recovery())
	if s.log != nil {
		s.router.Use(s.requestLogger())
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	s.router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Current())
	})
	s.router.GET("/loggers", s.listLoggers)
	s.router.GET("/stats", s.stats)

	admin := s.router.Group("/", s.allowMiddleware())
	if s.rateLimit != rate.Inf {
		admin.Use(s.rateLimitMiddleware())
	}
	admin.PUT("/loggers/:name/level", s.setLoggerLevel)
	admin.POST("/levels", s.setLevels)
	admin.POST("/flush", s.flush)
}

type loggerView struct {
	Name  string          `json:"name"`
	Level logbridge.Level `json:"level"`
}

func viewOf(l *logbridge.Logger) loggerView {
	return loggerView{Name: l.Name(), Level: l.Level()}
}

func (s *Server) listLoggers(c *gin.Context) {
	pattern := c.DefaultQuery("match", "**")
	if err := validation.Pattern(pattern, validation.DefaultMaxInputLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loggers, err := s.engine.Match(pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	views := make([]loggerView, 0, len(loggers))
	for _, l := range loggers {
		views = append(views, viewOf(l))
	}
	c.JSON(http.StatusOK, views)
}

type levelRequest struct {
	Level string `json:"level" binding:"required"`
}

func (s *Server) setLoggerLevel(c *gin.Context) {
	name := c.Param("name")
	if err := validation.LoggerName(name, validation.DefaultMaxInputLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req levelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lv, err := logbridge.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l := s.engine.Logger(name)
	l.SetLevel(lv)
	s.notice("level of logger '%s' set to %s", l.Name(), lv)
	c.JSON(http.StatusOK, viewOf(l))
}

type levelsRequest struct {
	Pattern string `json:"pattern" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

func (s *Server) setLevels(c *gin.Context) {
	var req levelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.Pattern(req.Pattern, validation.DefaultMaxInputLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lv, err := logbridge.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := s.engine.SetLevels(req.Pattern, lv)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.notice("level of %d logger(s) matching '%s' set to %s", n, req.Pattern, lv)
	c.JSON(http.StatusOK, gin.H{"pattern": req.Pattern, "level": lv, "updated": n})
}

func (s *Server) flush(c *gin.Context) {
	if err := s.engine.Flush(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "flushed"})
}

type statsResponse struct {
	Handlers []handler.Stats         `json:"handlers"`
	Receiver *logbridge.ReceiverStats `json:"receiver,omitempty"`
}

func (s *Server) stats(c *gin.Context) {
	resp := statsResponse{Handlers: s.engine.Stats()}
	if resp.Handlers == nil {
		resp.Handlers = []handler.Stats{}
	}
	if s.receiver != nil {
		rs := s.receiver.Stats()
		resp.Receiver = &rs
	}
	c.JSON(http.StatusOK, resp)
}

// allowMiddleware rejects clients outside the admin allow-list.
func (s *Server) allowMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := iputil.RemoteIP(c.Request)
		if !s.allow.Allows(ip) {
			s.warning("admin request from %s rejected", c.Request.RemoteAddr)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware limits requests per client IP.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.RemoteAddr
		if ip := iputil.RemoteIP(c.Request); ip != nil {
			key = ip.String()
		}

		s.limiterMu.Lock()
		limiter, exists := s.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(s.rateLimit, s.burstLimit)
			s.limiters[key] = limiter
		}
		s.limiterMu.Unlock()

		if !limiter.Allow() {
			s.warning("rate limit exceeded for %s", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		lv := logbridge.INFO
		switch {
		case status >= 500:
			lv = logbridge.ERROR
		case status >= 400:
			lv = logbridge.WARNING
		}
		path := validation.SanitizeString(c.Request.URL.Path, validation.DefaultMaxInputLength)
		_ = s.log.Log(lv, "%s %s %d %s from %s", c.Request.Method, path, status, time.Since(start), c.Request.RemoteAddr)
	}
}

func (s *Server) notice(format string, args ...interface{}) {
	if s.log != nil {
		_ = s.log.Notice(format, args...)
	}
}

func (s *Server) warning(format string, args ...interface{}) {
	if s.log != nil {
		_ = s.log.Warning(format, args...)
	}
}

// ServeHTTP serves the admin API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve accepts admin connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.srvMu.Lock()
	s.httpSrv = srv
	s.srvMu.Unlock()
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("admin server: %w", err)
	}
	s.notice("admin API listening on %s", l.Addr())
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for those in progress.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.httpSrv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
