package oauth2

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"album-grid/internal/common/cache"
	"album-grid/internal/streaming"
)

// fakeAuthServer is a token endpoint that counts grants and can be told to
// reject them.
type fakeAuthServer struct {
	*httptest.Server

	mu         sync.Mutex
	grants     map[string]int
	status     int
	delay      time.Duration
	access     string
	refresh    string
	expiresIn  int
	lastForm   map[string]string
	lastClient string
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()
	f := &fakeAuthServer{
		grants:    make(map[string]int),
		status:    http.StatusOK,
		access:    "new-access",
		refresh:   "new-refresh",
		expiresIn: 3600,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAuthServer) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	user, _, _ := r.BasicAuth()

	f.mu.Lock()
	grant := r.PostForm.Get("grant_type")
	f.grants[grant]++
	f.lastClient = user
	f.lastForm = map[string]string{}
	for k := range r.PostForm {
		f.lastForm[k] = r.PostForm.Get(k)
	}
	status, delay := f.status, f.delay
	body := map[string]interface{}{
		"access_token": f.access,
		"token_type":   "Bearer",
		"expires_in":   f.expiresIn,
	}
	if f.refresh != "" && grant != "client_credentials" {
		body["refresh_token"] = f.refresh
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Refresh token revoked",
		})
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeAuthServer) count(grant string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grants[grant]
}

func (f *fakeAuthServer) setStatus(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeAuthServer) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *fakeAuthServer) setTokens(access, refresh string) {
	f.mu.Lock()
	f.access, f.refresh = access, refresh
	f.mu.Unlock()
}

func (f *fakeAuthServer) form(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm[key]
}

func (f *fakeAuthServer) clientID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastClient
}

func (f *fakeAuthServer) provider() *Provider {
	return NewProvider(ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		AuthURL:      "https://accounts.example.com/authorize",
		TokenURL:     f.URL + "/api/token",
		Timeout:      2 * time.Second,
	})
}

// testClock is a settable Clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClientFactory() *streaming.Factory {
	return streaming.NewFactory(streaming.DefaultConfig())
}

func newMemoryStore() *cache.LocalStore {
	return cache.NewLocalStore(time.Minute)
}
