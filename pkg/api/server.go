// Package api provides the HTTP surface for HelixAsk: Ask submission,
// tool-log SSE streaming, the adapter safety gate, chat-session CRUD, and
// training-trace export, spec §6.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/helixask/helixaskd/pkg/config"
	"github.com/helixask/helixaskd/pkg/events"
	"github.com/helixask/helixaskd/pkg/orchestrator"
	"github.com/helixask/helixaskd/pkg/ratelimit"
	"github.com/helixask/helixaskd/pkg/safety"
	"github.com/helixask/helixaskd/pkg/store"
	"github.com/helixask/helixaskd/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo         *echo.Echo
	httpServer   *http.Server
	cfg          *config.Config
	orchestrator *orchestrator.Orchestrator
	bus          *events.Bus
	gate         *safety.Gate
	sessions     *store.SessionStore
	traces       *store.TraceStore
}

// NewServer creates a new API server with Echo v5, wiring every collaborator
// up front rather than through the teacher's phased Set* wiring. limiter and
// guard may be nil, which leaves that middleware out; the other
// collaborators are required for their routes to work.
func NewServer(
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	bus *events.Bus,
	gate *safety.Gate,
	sessions *store.SessionStore,
	traces *store.TraceStore,
	limiter *ratelimit.Limiter,
	guard *ratelimit.Guard,
) *Server {
	e := echo.New()

	s := &Server{
		echo:         e,
		cfg:          cfg,
		orchestrator: orch,
		bus:          bus,
		gate:         gate,
		sessions:     sessions,
		traces:       traces,
	}

	e.Use(middleware.BodyLimit(2 * 1024 * 1024))
	e.Use(securityHeaders())

	skip := ratelimit.SkipStreamsAndPreflight("/api/tool-logs/stream")
	if limiter != nil {
		e.Use(ratelimit.Middleware(limiter, nil, skip))
	}
	if guard != nil {
		e.Use(ratelimit.ConcurrencyMiddleware(guard, skip))
	}

	s.setupRoutes()
	return s
}

// securityHeaders sets response headers tuned to HelixAsk's own surface:
// every route here returns either JSON (ask replies, adapter verdicts,
// session bodies, trace exports) or an SSE stream — never markup a browser
// would render — so the header set leans hard into deny-framing and
// deny-sniffing rather than a general-purpose CSP. Certificates and
// verdicts from the safety gate (§4.5) are exactly the kind of payload that
// must never be clickjacked into an unrelated frame.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// setupRoutes registers all API routes, spec §6.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler)

	s.echo.POST("/api/agi/ask", s.askHandler)
	s.echo.GET("/api/tool-logs/stream", s.streamHandler)
	s.echo.POST("/api/agi/adapter/run", s.adapterRunHandler)

	s.echo.GET("/api/chat/sessions", s.listSessionsHandler)
	s.echo.GET("/api/chat/sessions/:id", s.getSessionHandler)
	s.echo.POST("/api/chat/sessions/:id", s.upsertSessionHandler)
	s.echo.DELETE("/api/chat/sessions/:id", s.deleteSessionHandler)

	s.echo.GET("/api/training-trace/export", s.traceExportHandler)
}

// Start starts the HTTP server on the given address. It blocks in
// ListenAndServe until the server stops and returns its error.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	_, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats := s.cfg.Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "healthy",
		"version":          version.Full(),
		"rateLimitEnabled": stats.RateLimitEnabled,
		"askMode":          stats.AskMode,
		"ringBufferSize":   stats.RingBufferSize,
		"busSize":          s.bus.Size(),
		"subscribers":      s.bus.SubscriberCount(),
		"queueDepth":       s.orchestrator.QueueLen(),
	})
}

// ownerID extracts the owner identity from the request, spec §4.6: "absent a
// valid identity the operation fails with forbidden."
func ownerID(c *echo.Context) string {
	return c.Request().Header.Get("X-Owner-Id")
}

// tenantID extracts the tenant identity for trace-store operations.
func tenantID(c *echo.Context) string {
	return c.Request().Header.Get("X-Tenant-Id")
}
