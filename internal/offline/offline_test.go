package offline_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/pioneer-tracker/internal/offline"
)

type origin struct {
	srv   *httptest.Server
	posts atomic.Int32
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html>tracker</html>")
		case "/manifest.json":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"name":"tracker"}`)
		case "/app.js":
			io.WriteString(w, "console.log('app')")
		case "/api":
			if r.Method == http.MethodPost {
				o.posts.Add(1)
				w.WriteHeader(http.StatusCreated)
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	o.srv = httptest.NewServer(mux)
	t.Cleanup(o.srv.Close)
	return o
}

func newManager(t *testing.T, o *origin, root string) *offline.Manager {
	t.Helper()
	m, err := offline.NewManager(root, o.srv.URL, nil, o.srv.Client())
	require.NoError(t, err)
	return m
}

func get(m *offline.Manager, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	return rec
}

func TestNewManagerRejectsRelativeOrigin(t *testing.T) {
	_, err := offline.NewManager(t.TempDir(), "/relative", nil, nil)
	require.Error(t, err)
}

func TestInstallActivatesFirstVersion(t *testing.T) {
	o := newOrigin(t)
	root := t.TempDir()
	m := newManager(t, o, root)

	require.NoError(t, m.Install(context.Background(), "v1"))
	require.Equal(t, "v1", m.Active())
	require.Empty(t, m.Waiting())
	require.Equal(t, 3, offline.OpenCache(root, "v1").Len())

	// The active version survives a restart.
	again := newManager(t, o, root)
	require.Equal(t, "v1", again.Active())
}

func TestNewVersionWaitsUntilSkipWaiting(t *testing.T) {
	o := newOrigin(t)
	root := t.TempDir()
	m := newManager(t, o, root)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "v1"))
	require.NoError(t, m.Install(ctx, "v2"))
	require.Equal(t, "v1", m.Active())
	require.Equal(t, "v2", m.Waiting())

	names, err := offline.Names(root)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"v1", "v2"}, names); diff != "" {
		t.Errorf("caches before activation (-want +got):\n%s", diff)
	}

	req := httptest.NewRequest(http.MethodPost, offline.SkipWaitingPath, nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "v2", m.Active())
	require.Empty(t, m.Waiting())

	names, err = offline.Names(root)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"v2"}, names); diff != "" {
		t.Errorf("caches after activation (-want +got):\n%s", diff)
	}
}

func TestSkipWaitingRequiresPost(t *testing.T) {
	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	rec := get(m, offline.SkipWaitingPath, nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSkipWaitingWithoutWaitingVersion(t *testing.T) {
	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	require.NoError(t, m.Install(context.Background(), "v1"))
	require.NoError(t, m.SkipWaiting())
	require.Equal(t, "v1", m.Active())
}

func TestServesPrecachedAssetsOffline(t *testing.T) {
	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	require.NoError(t, m.Install(context.Background(), "v1"))
	o.srv.Close()

	rec := get(m, "/manifest.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"name":"tracker"}`, rec.Body.String())
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCachesSuccessfulResponsesOnTheWay(t *testing.T) {
	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	require.NoError(t, m.Install(context.Background(), "v1"))

	require.Equal(t, http.StatusOK, get(m, "/app.js", nil).Code)
	require.Equal(t, http.StatusNotFound, get(m, "/missing.js", nil).Code)
	o.srv.Close()

	rec := get(m, "/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "console.log('app')", rec.Body.String())

	require.Equal(t, http.StatusGatewayTimeout, get(m, "/missing.js", nil).Code)
}

func TestNavigationFallsBackToMainPage(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{name: "fetch mode navigate", header: map[string]string{"Sec-Fetch-Mode": "navigate"}, want: http.StatusOK},
		{name: "html accept", header: map[string]string{"Accept": "text/html,application/xhtml+xml"}, want: http.StatusOK},
		{name: "sub-resource", header: map[string]string{"Sec-Fetch-Mode": "no-cors", "Accept": "text/html"}, want: http.StatusGatewayTimeout},
		{name: "script", header: map[string]string{"Accept": "*/*"}, want: http.StatusGatewayTimeout},
	}

	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	require.NoError(t, m.Install(context.Background(), "v1"))
	o.srv.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(m, "/history?month=2026-10", tt.header)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.Contains(t, rec.Body.String(), "tracker")
			}
		})
	}
}

func TestNonGetBypassesCache(t *testing.T) {
	o := newOrigin(t)
	m := newManager(t, o, t.TempDir())
	require.NoError(t, m.Install(context.Background(), "v1"))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		m.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.EqualValues(t, 2, o.posts.Load())
}

func TestIntercepts(t *testing.T) {
	tests := []struct {
		method string
		target string
		want   bool
	}{
		{http.MethodGet, "/index.html", true},
		{http.MethodHead, "/index.html", false},
		{http.MethodPost, "/api", false},
		{http.MethodGet, "chrome-extension://abc/script.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if got := offline.Intercepts(req); got != tt.want {
				t.Errorf("Intercepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheDelete(t *testing.T) {
	root := t.TempDir()
	c := offline.OpenCache(root, "v1")
	require.NoError(t, c.Put("http://example.com/", offline.Response{Status: 200, Body: []byte("x")}))
	require.Equal(t, 1, c.Len())

	got, ok := c.Match("http://example.com/")
	require.True(t, ok)
	require.Equal(t, []byte("x"), got.Body)

	require.NoError(t, c.Delete())
	_, ok = c.Match("http://example.com/")
	require.False(t, ok)
	require.NoDirExists(t, filepath.Join(root, "v1"))
}
