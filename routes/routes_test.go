package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aura/config"
	"aura/database"
	"aura/handlers"
	"aura/media"
	"aura/push"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T, staticDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		AllowedOrigins:     "http://localhost:5173",
		ReelMaxBytes:       1 << 20,
		ImageMaxBytes:      1 << 20,
		RateLimitPerMinute: 2,
		StaticDir:          staticDir,
	}
	store := database.NewMemoryStore()
	h := handlers.New(cfg, store, media.Unconfigured{}, push.NewSender(store, push.Keys{}, ""))
	return SetupRouter(cfg, h, nil)
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	r := testRouter(t, "")

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = get(r, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	r := testRouter(t, "")

	w := get(r, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found","path":"/nope"}`, w.Body.String())
}

func TestStaticClientFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>aura</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	r := testRouter(t, dir)

	w := get(r, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = get(r, "/profile/alice")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aura")

	w = get(r, "/")
	assert.Contains(t, w.Body.String(), "aura")
}

func TestCredentialRoutesAreRateLimited(t *testing.T) {
	r := testRouter(t, "")

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/getPosts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
