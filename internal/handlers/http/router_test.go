package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/render"
	"drawboard/internal/core/services"
	"drawboard/internal/core/session"
	"drawboard/internal/infrastructure/repositories/memory"
	"drawboard/pkg/backup"
	"drawboard/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testAPI struct {
	router *gin.Engine
	store  *session.Store
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Monitoring.PrometheusEnabled = false
	cfg.Server.PublicURL = "https://board.example.com/"
	log := zaptest.NewLogger(t)
	sugar := log.Sugar()

	store := session.NewStore()
	auth := services.NewAuthService("test-secret", time.Hour)
	storage, err := backup.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Config:        cfg,
		Auth:          auth,
		Profiles:      services.NewProfileService(memory.NewMemoryKeyValueStore(), auth, services.ProfileConfig{}, sugar),
		Board:         services.NewBoardService(store, render.NewReplayer(120, 80, "#ffffff"), nil),
		Collaboration: services.NewCollaborationService(store, services.CollaborationConfig{}, sugar),
		Snapshots:     services.NewSnapshotService(store, storage, "test", sugar),
		Logger:        log,
	})
	return &testAPI{router: router, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"name": "Dana", "email": "dana@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "Dana", resp.Profile.Name)
	a.token = resp.Token
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/board/state", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"name": "", "email": "x@y.zz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.login(t)

	w = api.do(t, http.MethodGet, "/api/v1/auth/session", nil)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	w = api.do(t, http.MethodPatch, "/api/v1/profile", map[string]string{"name": "Dee"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Dee"`)

	w = api.do(t, http.MethodPut, "/api/v1/profile/settings", map[string]any{
		"settings": map[string]any{"theme": "dark", "autoSave": false},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"theme":"dark"`)

	w = api.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// the token outlives the session but no longer opens anything
	w = api.do(t, http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/board/state", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = api.do(t, http.MethodPost, "/api/v1/board/actions", map[string]any{"type": "CLEAR_CANVAS"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBoardActions(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	w := api.do(t, http.MethodPost, "/api/v1/board/actions", map[string]any{"type": "SET_TOOL", "payload": "erase"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/board/actions", map[string]any{"type": "JUMP"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")

	w = api.do(t, http.MethodPost, "/api/v1/board/actions", map[string]any{"type": "REMOVE_COLLABORATOR", "payload": "user1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/board/pointer/down", domain.Point{X: 5, Y: 5}).Code)
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/board/pointer/move", domain.Point{X: 40, Y: 30}).Code)
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, "/api/v1/board/pointer/up", nil).Code)

	w = api.do(t, http.MethodGet, "/api/v1/board/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status domain.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Strokes)
	assert.False(t, status.IsDrawing)
	assert.Equal(t, domain.ToolErase, status.CurrentTool)

	state, err := api.store.State()
	require.NoError(t, err)
	w = api.do(t, http.MethodPost, "/api/v1/board/actions", map[string]any{"type": "REPLACE_STROKE", "payload": state.Strokes[0]})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/collaboration/lock", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodPost, "/api/v1/board/pointer/down", domain.Point{X: 1, Y: 1})
	assert.Equal(t, http.StatusLocked, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/board/canvas.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = api.do(t, http.MethodGet, "/api/v1/board/canvas.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestSnapshots(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	w := api.do(t, http.MethodPost, "/api/v1/board/snapshots", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var saved struct{ Name string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))

	w = api.do(t, http.MethodGet, "/api/v1/board/snapshots", nil)
	assert.Contains(t, w.Body.String(), saved.Name)

	w = api.do(t, http.MethodPost, "/api/v1/board/snapshots/"+saved.Name+"/restore", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/board/snapshots/snapshot-missing.json/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollaboration(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	w := api.do(t, http.MethodPost, "/api/v1/collaboration/invite", map[string]string{"email": "sam@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var c domain.Collaborator
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "sam", c.Name)

	w = api.do(t, http.MethodDelete, "/api/v1/collaboration/collaborators/"+string(c.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodDelete, "/api/v1/collaboration/collaborators/user1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/collaboration/mode", map[string]string{"mode": "open"})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodPut, "/api/v1/collaboration/mode", map[string]string{"mode": "chaos"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/collaboration/share-link", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"link":"https://board.example.com/?collab=true&mode=open"}`, w.Body.String())
}

func TestOpsEndpoints(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/ready", nil).Code)
}
