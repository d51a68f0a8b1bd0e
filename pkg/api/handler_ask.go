package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/helixask/helixaskd/pkg/models"
	"github.com/helixask/helixaskd/pkg/orchestrator"
)

// askRequestBody is the wire shape for POST /api/agi/ask, spec §6.
type askRequestBody struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Mode      string `json:"mode,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
}

type askResponseBody struct {
	Text    string         `json:"text"`
	Sources []string       `json:"sources"`
	TraceID string         `json:"traceId"`
	Debug   map[string]any `json:"debug,omitempty"`
}

// askHandler handles POST /api/agi/ask.
func (s *Server) askHandler(c *echo.Context) error {
	var body askRequestBody
	if err := c.Bind(&body); err != nil {
		return taxonomyError(http.StatusBadRequest, "invalid_request")
	}
	if body.Question == "" {
		return taxonomyError(http.StatusBadRequest, "invalid_request")
	}

	mode := models.ModeGrounded
	if body.Mode == string(models.ModeExecute) {
		mode = models.ModeExecute
	}

	req := orchestrator.AskRequest{
		Question:  body.Question,
		SessionID: body.SessionID,
		TraceID:   body.TraceID,
		Mode:      mode,
		MaxTokens: body.MaxTokens,
		Debug:     body.Debug,
	}

	result, err := s.orchestrator.Submit(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, askResponseBody{
		Text:    result.ReplyText,
		Sources: result.Sources,
		TraceID: result.TraceID,
		Debug:   result.Debug,
	})
}
