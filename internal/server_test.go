package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/npcgate/internal/config"
	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/internal/identity"
	"github.com/kazz187/npcgate/internal/upstream"
	"github.com/kazz187/npcgate/pkg/cerr"
	"github.com/kazz187/npcgate/pkg/clog"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	env := &config.Env{
		BaseEnv:    config.BaseEnv{AllowedOrigins: []string{"*"}},
		TimeoutEnv: config.TimeoutEnv{TaskTimeout: time.Second, GradeTimeout: time.Second, PassTimeout: time.Second, RegisterTimeout: time.Second},
	}
	h := gateway.NewHandler(gateway.NewOperations(env), upstream.NewCaller(nil), identity.NewResolver(nil))
	srv := httptest.NewServer(NewServer(env, h).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGRPCHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/grpc.health.v1.Health/Check", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "SERVING_STATUS_SERVING", body["status"])
}

func TestNotFoundIsStructured(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(clog.RequestIDHeader))

	var body cerr.Body
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, cerr.StatusError, body.Status)
	assert.Equal(t, "not_found", body.Code)
}

func TestUnauthenticatedThroughServer(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/task?game=g&npc=n")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/grade", nil)
	require.NoError(t, err)
	req.Header.Set(clog.RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(clog.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/game-task", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://game.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://game.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
