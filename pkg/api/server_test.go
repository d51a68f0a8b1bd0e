package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixask/helixaskd/pkg/config"
	"github.com/helixask/helixaskd/pkg/events"
	"github.com/helixask/helixaskd/pkg/orchestrator"
	"github.com/helixask/helixaskd/pkg/safety"
	"github.com/helixask/helixaskd/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.RateLimit.Enabled = false
	cfg.Ask.Mode = "grounded"
	cfg.Events.RingBufferSize = 16

	bus := events.NewBus(16, 16)
	orch := orchestrator.New(orchestrator.Deps{Bus: bus}, cfg.Ask)
	t.Cleanup(orch.Close)

	return NewServer(cfg, orch, bus, safety.NewGate(nil), store.NewSessionStore(), store.NewTraceStore(), nil, nil)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	require.NoError(t, s.healthHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "grounded", body["askMode"])
}

func TestSessionLifecycle_CreateGetDelete(t *testing.T) {
	s := newTestServer(t)

	upsertBody := `{"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/sessions/s1", strings.NewReader(upsertBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-Id", "owner-1")
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	require.NoError(t, s.upsertSessionHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/chat/sessions/s1", nil)
	getReq.Header.Set("X-Owner-Id", "owner-1")
	getRec := httptest.NewRecorder()
	getC := s.echo.NewContext(getReq, getRec)
	getC.SetParamNames("id")
	getC.SetParamValues("s1")

	require.NoError(t, s.getSessionHandler(getC))
	assert.Equal(t, http.StatusOK, getRec.Code)

	var got sessionBody
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	assert.Len(t, got.Messages, 1)
	assert.NotEmpty(t, got.ContentHash)
}

func TestGetSessionHandler_ForbiddenWithoutOwner(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/sessions/s1", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	err := s.getSessionHandler(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestAdapterRunHandler_ForbiddenActuation(t *testing.T) {
	s := newTestServer(t)

	body := `{"actions":[{"id":"a1","kind":"motor.spin","params":{"torque":1.0}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/agi/adapter/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.adapterRunHandler(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
