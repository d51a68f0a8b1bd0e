package api

import (
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/helixask/helixaskd/pkg/events"
)

// streamHandler handles GET /api/tool-logs/stream?sessionId=&traceId=&limit=.
func (s *Server) streamHandler(c *echo.Context) error {
	filter := events.EventFilter{
		SessionID: c.QueryParam("sessionId"),
		TraceID:   c.QueryParam("traceId"),
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	return events.ServeSSE(c.Request().Context(), c.Response(), s.bus, filter, limit, 15*time.Second)
}
