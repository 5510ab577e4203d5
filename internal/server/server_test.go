package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"membrane-connect-be/internal/bootstrap"
	"membrane-connect-be/internal/config"
	"membrane-connect-be/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionSecret = "session-secret"

func newTestServer(t *testing.T, upstream http.HandlerFunc, workspaceKey string) *Server {
	t.Helper()
	platform := httptest.NewServer(upstream)
	t.Cleanup(platform.Close)

	cfg := &config.Config{
		App:  config.AppConfig{Port: "0", CorsAllowedOrigins: "http://localhost:3000"},
		Auth: config.AuthConfig{SessionSecret: sessionSecret},
		Membrane: config.MembraneConfig{
			WorkspaceKey:    workspaceKey,
			WorkspaceSecret: "workspace-secret",
			APIURI:          platform.URL,
			HTTPTimeout:     5 * time.Second,
		},
	}
	// The routes exercised here never touch the database.
	container := bootstrap.NewContainer(nil, cfg, logger.NewNopLogger())
	srv, err := New(cfg, container)
	require.NoError(t, err)
	return srv
}

func sessionToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"name":    "Alice",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(sessionSecret))
	require.NoError(t, err)
	return tok
}

func get(t *testing.T, srv *Server, path, token string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, "ws")
	resp, body := get(t, srv, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestNewRejectsWildcardOrigin(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{CorsAllowedOrigins: "*"},
		Auth: config.AuthConfig{SessionSecret: sessionSecret},
	}
	container := bootstrap.NewContainer(nil, cfg, logger.NewNopLogger())

	srv, err := New(cfg, container)
	assert.Error(t, err)
	assert.Nil(t, srv)
}

func TestCorsAllowsConfiguredOrigin(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, "ws")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestSearchEndToEnd(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		switch r.URL.Query().Get("elementType") {
		case "integration":
			_, _ = w.Write([]byte(`{"items":[{"elementType":"integration","element":{"id":"i1","key":"slack","appUuid":"a1"}}]}`))
		case "app":
			_, _ = w.Write([]byte(`{"items":[{"elementType":"app","element":{"uuid":"a1","name":"Slack"}}]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}, "ws")

	resp, body := get(t, srv, "/api/connectibles/search?q=Slack", sessionToken(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Connectibles []struct {
			Name        string                 `json:"name"`
			Integration map[string]interface{} `json:"integration"`
			ExternalApp map[string]interface{} `json:"externalApp"`
		} `json:"connectibles"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Connectibles, 1)
	assert.Equal(t, "i1", out.Connectibles[0].Integration["id"])
	assert.Equal(t, "a1", out.Connectibles[0].ExternalApp["id"])
}

func TestSearchRequiresSession(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	}, "ws")
	resp, body := get(t, srv, "/api/connectibles/search?q=x", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
}

func TestTokenWithoutWorkspaceCredentials(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	resp, body := get(t, srv, "/api/membrane/token", sessionToken(t))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Membrane workspace credentials not configured"}`, string(body))
}

func TestTokenIsMinted(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, "ws")
	resp, body := get(t, srv, "/api/membrane/token", sessionToken(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	parsed, err := jwt.Parse(out["token"], func(*jwt.Token) (interface{}, error) {
		return []byte("workspace-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "u1", claims["id"])
	assert.Equal(t, "Alice", claims["name"])
	assert.Equal(t, "ws", claims["iss"])
}

func TestSessionStatusRequiresID(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, "ws")
	resp, body := get(t, srv, "/api/membrane/sessions", sessionToken(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"sessionId is required"}`, string(body))
}

func TestMetricsExposeUpstreamCounters(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}, "ws")
	get(t, srv, "/api/connectibles/search", sessionToken(t))

	resp, body := get(t, srv, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `membrane_upstream_requests_total{operation="list_integrations",outcome="ok"} 1`)
}
