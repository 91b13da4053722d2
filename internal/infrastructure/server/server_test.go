package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/app"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/config"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
)

const working = `function setup(){ createCanvas(30, 30) } function draw(){ background(0); rect(2, 2, 4, 4) }`

// fakeService stands in for the animation service.
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/generate-animation", func(c *gin.Context) {
		c.JSON(http.StatusOK, types.CodeResponse{Code: working})
	})
	r.POST("/save-animation", func(c *gin.Context) {
		c.JSON(http.StatusOK, types.SaveResponse{ID: "anim-1"})
	})
	r.GET("/animation/:id", func(c *gin.Context) {
		if c.Param("id") != "anim-1" {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, types.Animation{ID: "anim-1", Code: working, Description: "square"})
	})
	r.GET("/feed", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("SKETCHBOX_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.RateLimit.Enabled = false
	cfg.API.BaseURL = fakeService(t).URL
	cfg.API.Retries = 0
	cfg.API.RPS = 0
	cfg.Sandbox.ExecTimeout = time.Second
	cfg.Storage.HistoryDB = ":memory:"
	cfg.Storage.CredentialsFile = ""

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return New(a)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sketchbox", decode(t, w)["service"])

	w = do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "metrics")
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestPreviewEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/preview", types.PreviewRequest{Code: working, Frames: 30})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "sketch", body["kind"])
	assert.Equal(t, "live", body["outcome"])
	assert.EqualValues(t, 30, body["frames"])

	w = do(t, s, http.MethodPost, "/preview", map[string]any{"kind": "sketch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/preview", types.PreviewRequest{Code: working, Frames: 100000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateShareAndHistory(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/create", types.GenerateRequest{Description: "a square"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, working, created["code"])
	runID, _ := created["run_id"].(string)
	require.NotEmpty(t, runID)

	w = do(t, s, http.MethodPost, "/share", types.ShareRequest{Code: working, Description: "a square", RunID: runID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "anim-1", decode(t, w)["id"])

	w = do(t, s, http.MethodGet, "/history/"+runID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode(t, w)
	assert.Equal(t, "anim-1", run["animation_id"])
	assert.Equal(t, "live", run["outcome"])

	w = do(t, s, http.MethodGet, "/history?kind=sketch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, s, http.MethodGet, "/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/history/hist_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenFeedAndMood(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/animation/anim-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "square", body["animation"].(map[string]any)["description"])
	assert.Equal(t, "live", body["result"].(map[string]any)["outcome"])

	w = do(t, s, http.MethodGet, "/animation/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/feed", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPost, "/mood", types.MoodRequest{AnimationID: "anim-1", Mood: "furious"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/create", types.GenerateRequest{Description: "<i></i>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "description", decode(t, w)["field"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/preview", types.PreviewRequest{Code: working, Frames: 5})

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "sketchbox_runs_total"), "sandbox metrics are exported")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	s.config.Server.Host = "127.0.0.1"
	s.config.Server.Port = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHandlerCompresses(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")

	// Small bodies go out as is.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "sketchbox", decode(t, w)["service"])
}
