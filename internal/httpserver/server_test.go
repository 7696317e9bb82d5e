package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/telescope-livewire/internal/config"
	"github.com/PratikDhanave/telescope-livewire/internal/livewire"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/store"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

const apiKey = "test-key"

func testConfig() config.Config {
	return config.Config{
		StorageDriver:       config.DriverMemory,
		TelescopeEnabled:    true,
		APIKeys:             map[string]string{apiKey: "tests"},
		PayloadPolicy:       "params",
		RegisterHooks:       true,
		ResponseSizeLimitKB: 64,
		HiddenHeaders:       []string{"authorization"},
		HiddenParameters:    []string{"password"},
		IgnorePaths:         []string{"/telescope/**", "/health", "/ready"},
	}
}

type testServer struct {
	router *gin.Engine
	repo   *store.MemoryStore
	tel    *telescope.Telescope
}

func newTestServer(t *testing.T, cfg config.Config) testServer {
	t.Helper()

	reg := livewire.NewRegistry()
	reg.Register("counter", "App.Livewire.Counter")
	reg.Register("posts.edit", "App.Livewire.Posts.Edit")

	repo := store.NewMemoryStore(100)
	tel := telescope.New(cfg.TelescopeEnabled)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := NewRouter(cfg, repo, tel, reg, log)
	require.NoError(t, err)
	return testServer{router: r, repo: repo, tel: tel}
}

func (s testServer) do(method, path, key string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) listRequests(t *testing.T) []models.Entry {
	t.Helper()
	rec := s.do(http.MethodGet, "/telescope/api/requests", apiKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []models.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Entries
}

func updateRequest(t *testing.T) []byte {
	t.Helper()
	snap := func(name, path string) string {
		b, err := json.Marshal(map[string]any{
			"memo": map[string]any{"name": name, "path": path},
			"data": map[string]any{"count": 1},
		})
		require.NoError(t, err)
		return string(b)
	}

	b, err := json.Marshal(models.UpdateRequest{Components: []models.ComponentPayload{
		{Snapshot: snap("posts.edit", "posts/1"), Calls: []models.Call{
			{Method: "save", Params: json.RawMessage(`{"id":1}`)},
			{Method: "publish"},
		}},
		{Snapshot: snap("counter", "/dashboard"), Calls: []models.Call{
			{Method: "increment"},
			{Method: "decrement"},
		}},
	}})
	require.NoError(t, err)
	return b
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "", nil).Code)
	assert.Empty(t, s.listRequests(t), "health checks are not recorded")
}

func TestAPI_RequiresKey(t *testing.T) {
	s := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/telescope/api/requests", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/telescope/api/requests", "wrong", nil).Code)
}

func TestLivewireUpdate_RecordsOneEntryPerCall(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(http.MethodPost, "/livewire/update", "", updateRequest(t))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := s.listRequests(t)
	require.Len(t, entries, 4, "the update mechanism entry itself is filtered out")

	// Newest first.
	var actions []string
	for i := len(entries) - 1; i >= 0; i-- {
		actions = append(actions, entries[i].Content.ControllerAction)
	}
	assert.Equal(t, []string{
		"App.Livewire.Posts.Edit@save",
		"App.Livewire.Posts.Edit@publish",
		"App.Livewire.Counter@increment",
		"App.Livewire.Counter@decrement",
	}, actions)

	oldest := entries[len(entries)-1]
	assert.Equal(t, "/posts/1", oldest.Content.URI)
	assert.Equal(t, http.MethodPost, oldest.Content.Method)
	assert.Equal(t, []string{"web"}, oldest.Content.Middleware)
	assert.Equal(t, map[string]any{"id": float64(1)}, oldest.Content.Payload)
	assert.Equal(t, http.StatusOK, oldest.Content.ResponseStatus)
	require.NotNil(t, oldest.Content.Duration)
	assert.GreaterOrEqual(t, *oldest.Content.Duration, int64(0))

	for _, e := range entries {
		assert.Equal(t, oldest.BatchID, e.BatchID)
	}
}

func TestLivewireUpdate_HooksDisabledKeepsMechanismEntry(t *testing.T) {
	cfg := testConfig()
	cfg.RegisterHooks = false
	s := newTestServer(t, cfg)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/livewire/update", "", updateRequest(t)).Code)

	entries := s.listRequests(t)
	require.Len(t, entries, 5)
	assert.Equal(t, livewire.UpdateAction, entries[0].Content.ControllerAction)
}

func TestLivewireUpdate_SnapshotPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.PayloadPolicy = "snapshot"
	s := newTestServer(t, cfg)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/livewire/update", "", updateRequest(t)).Code)

	for _, e := range s.listRequests(t) {
		assert.Equal(t, map[string]any{"count": float64(1)}, e.Content.Payload)
	}
}

func TestRecordingToggle_StopsRecording(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(http.MethodPost, "/telescope/api/toggle-recording", apiKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recording":false,"toggled_by":"tests"}`, rec.Body.String())

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/livewire/update", "", updateRequest(t)).Code)
	assert.Empty(t, s.listRequests(t))
}

func TestNewRouter_InvalidPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.PayloadPolicy = "everything"

	_, err := NewRouter(cfg, store.NewMemoryStore(1), telescope.New(true), livewire.NewRegistry(), slog.Default())
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/livewire/update", "", updateRequest(t)).Code)

	rec := s.do(http.MethodGet, "/telescope/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "livewire_calls_recorded_total")
}
