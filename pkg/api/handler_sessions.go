package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/helixask/helixaskd/pkg/models"
)

type sessionMessageBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	TraceID string `json:"traceId,omitempty"`
}

type sessionBody struct {
	SessionID   string               `json:"sessionId"`
	ContextID   string               `json:"contextId,omitempty"`
	PersonaID   string               `json:"personaId,omitempty"`
	Messages    []sessionMessageBody `json:"messages,omitempty"`
	ContentHash string               `json:"contentHash,omitempty"`
}

func toSessionBody(sess models.Session) sessionBody {
	msgs := make([]sessionMessageBody, len(sess.Messages))
	for i, m := range sess.Messages {
		msgs[i] = sessionMessageBody{Role: m.Role, Content: m.Content, TraceID: m.TraceID}
	}
	return sessionBody{
		SessionID:   sess.SessionID,
		ContextID:   sess.ContextID,
		PersonaID:   sess.PersonaID,
		Messages:    msgs,
		ContentHash: sess.ContentHash,
	}
}

// listSessionsHandler handles GET /api/chat/sessions?limit=&offset=&includeMessages=.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	owner := ownerID(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	includeMessages := c.QueryParam("includeMessages") == "true"

	sessions, err := s.sessions.List(c.Request().Context(), owner, limit, offset, includeMessages)
	if err != nil {
		return mapError(err)
	}

	out := make([]sessionBody, len(sessions))
	for i, sess := range sessions {
		out[i] = toSessionBody(sess)
	}
	return c.JSON(http.StatusOK, out)
}

// getSessionHandler handles GET /api/chat/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sess, err := s.sessions.Get(c.Request().Context(), ownerID(c), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toSessionBody(*sess))
}

// upsertSessionHandler handles POST /api/chat/sessions/:id.
func (s *Server) upsertSessionHandler(c *echo.Context) error {
	var body sessionBody
	if err := c.Bind(&body); err != nil {
		return taxonomyError(http.StatusBadRequest, "invalid_request")
	}
	body.SessionID = c.Param("id")

	messages := make([]models.Message, len(body.Messages))
	for i, m := range body.Messages {
		messages[i] = models.Message{Role: m.Role, Content: m.Content, TraceID: m.TraceID}
	}

	saved, err := s.sessions.Upsert(c.Request().Context(), ownerID(c), models.Session{
		SessionID: body.SessionID,
		ContextID: body.ContextID,
		PersonaID: body.PersonaID,
		Messages:  messages,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toSessionBody(*saved))
}

// deleteSessionHandler handles DELETE /api/chat/sessions/:id.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	if err := s.sessions.Delete(c.Request().Context(), ownerID(c), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
