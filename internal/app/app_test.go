package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"album-grid/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lastFMBody = `{"topalbums": {"album": [
  {"artist": {"name": "Radiohead"}, "name": "OK Computer", "playcount": "412", "@attr": {"rank": "1"},
   "image": [{"size": "extralarge", "#text": "https://img/okc.png"}]}
], "@attr": {"user": "rj"}}}`

const searchBody = `{"albums": {"items": [
  {"id": "6dVIqQ8qmQ5GBnJ9shOYGE", "name": "OK Computer", "uri": "spotify:album:6dVIqQ8qmQ5GBnJ9shOYGE",
   "external_urls": {"spotify": "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE"},
   "artists": [{"name": "Radiohead"}], "images": [{"url": "https://i.scdn.co/okc.jpg"}]}
]}}`

// upstream fakes the token endpoint, the catalogue API and Last.fm on one server
type upstream struct {
	server *httptest.Server
	grants int32
	scrobs int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.grants, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "app-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer app-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(searchBody))
	})
	mux.HandleFunc("/2.0/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.scrobs, 1)
		_, _ = w.Write([]byte(lastFMBody))
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func testConfig(t *testing.T, u *upstream) *config.Config {
	t.Helper()
	for _, key := range []string{"REDIS_ADDRESS", "TOKEN_ENCRYPTION_KEY", "SPOTIFY_APP_TOKEN_SHARED", "TLS_CERT_FILE", "TLS_KEY_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("SPOTIFY_AUTH_URL", u.server.URL+"/authorize")
	t.Setenv("SPOTIFY_TOKEN_URL", u.server.URL+"/api/token")
	t.Setenv("SPOTIFY_API_URL", u.server.URL+"/v1")
	t.Setenv("LASTFM_API_KEY", "lastfm-key")
	t.Setenv("LASTFM_API_URL", u.server.URL+"/2.0/")
	t.Setenv("STREAMING_RATE_LIMIT", "0")

	cfg := config.Load()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(application.Cleanup)
	return application
}

func TestNew_LocalStore(t *testing.T) {
	application := newTestApp(t, testConfig(t, newUpstream(t)))

	assert.Nil(t, application.RedisClient)
	assert.Nil(t, application.Encryptor)
	assert.NoError(t, application.Store.Health())
}

func TestNew_RedisStoreWithEncryption(t *testing.T) {
	mr := miniredis.RunT(t)
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.RedisAddress = mr.Addr()
	cfg.TokenEncryptionKey = "passphrase"
	cfg.SpotifyAppTokenShared = true
	require.NoError(t, cfg.Validate())

	application := newTestApp(t, cfg)
	require.NotNil(t, application.RedisClient)
	assert.NotNil(t, application.Encryptor)
	assert.NoError(t, application.Store.Health())

	router := application.SetupRoutes()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/albums/search?artist=Radiohead&album=OK+Computer", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// the app token is shared through Redis
	assert.NotEmpty(t, mr.Keys())
}

func TestNew_UnreachableRedis(t *testing.T) {
	cfg := testConfig(t, newUpstream(t))
	cfg.RedisAddress = "127.0.0.1:1"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRoutes_Health(t *testing.T) {
	router := newTestApp(t, testConfig(t, newUpstream(t))).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Empty(t, rec.Result().Cookies())
}

func TestRoutes_Metrics(t *testing.T) {
	router := newTestApp(t, testConfig(t, newUpstream(t))).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRoutes_LoginRedirectsToConsent(t *testing.T) {
	u := newUpstream(t)
	router := newTestApp(t, testConfig(t, u)).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location.String(), u.server.URL+"/authorize"))
	assert.Equal(t, "client-id", location.Query().Get("client_id"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookies[0].Value, location.Query().Get("state"))
}

func TestRoutes_LogoutRequiresPost(t *testing.T) {
	router := newTestApp(t, testConfig(t, newUpstream(t))).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRoutes_GridIsCached(t *testing.T) {
	u := newUpstream(t)
	router := newTestApp(t, testConfig(t, u)).SetupRoutes()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grid/rj?size=1&period=7day", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "OK Computer")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&u.scrobs))
}

func TestRoutes_GridLinksWithoutAuthorization(t *testing.T) {
	router := newTestApp(t, testConfig(t, newUpstream(t))).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grid/rj/links", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["authorize_url"])
}

func TestRoutes_SearchUsesOneAppToken(t *testing.T) {
	u := newUpstream(t)
	router := newTestApp(t, testConfig(t, u)).SetupRoutes()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/albums/search?artist=Radiohead&album=OK+Computer", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&u.grants))
}

func TestRoutes_UnknownPath(t *testing.T) {
	router := newTestApp(t, testConfig(t, newUpstream(t))).SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
