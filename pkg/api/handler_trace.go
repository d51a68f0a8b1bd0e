package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

// traceExportHandler handles GET /api/training-trace/export?since=&limit=.
func (s *Server) traceExportHandler(c *echo.Context) error {
	since, _ := strconv.ParseUint(c.QueryParam("since"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	records, err := s.traces.ExportSince(c.Request().Context(), tenantID(c), since, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, records)
}
