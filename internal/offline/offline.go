package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
)

// DefaultManifest lists the assets precached on install, relative to the
// origin.
var DefaultManifest = []string{"./", "./index.html", "./manifest.json"}

// SkipWaitingPath activates a waiting cache version when POSTed to.
const SkipWaitingPath = "/_offline/skip-waiting"

const activeFile = "ACTIVE"

// Manager installs cache versions and serves requests from the active one.
type Manager struct {
	root     string
	origin   *url.URL
	manifest []string
	client   *http.Client

	mu      sync.RWMutex
	active  *Cache
	waiting *Cache
}

// NewManager returns a Manager keeping caches under root and mirroring
// origin. A nil client uses http.DefaultClient.
func NewManager(root, origin string, manifest []string, client *http.Client) (*Manager, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid origin %q: want an absolute http(s) URL", origin)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if len(manifest) == 0 {
		manifest = DefaultManifest
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	m := &Manager{root: root, origin: u, manifest: manifest, client: client}
	if name, err := os.ReadFile(filepath.Join(root, activeFile)); err == nil {
		if n := strings.TrimSpace(string(name)); n != "" {
			m.active = OpenCache(root, n)
		}
	}
	return m, nil
}

// Active returns the name of the active version, or "".
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ""
	}
	return m.active.Name()
}

// Waiting returns the name of the installed but not yet active version, or "".
func (m *Manager) Waiting() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.waiting == nil {
		return ""
	}
	return m.waiting.Name()
}

// Install precaches the manifest into version name. With no active version,
// or when name is already active, the version is activated right away;
// otherwise it waits for SkipWaiting. Assets that fail to download are
// logged and skipped.
func (m *Manager) Install(ctx context.Context, name string) error {
	c := OpenCache(m.root, name)
	var failed int
	for _, asset := range m.manifest {
		u := m.resolve(asset)
		resp, _, err := m.fetch(ctx, http.MethodGet, u, nil, nil)
		if err != nil {
			logger.Warn("precache failed", "url", u, "err", err)
			failed++
			continue
		}
		if resp.Status != http.StatusOK {
			logger.Warn("precache skipped", "url", u, "status", resp.Status)
			failed++
			continue
		}
		if err := c.Put(u, resp); err != nil {
			return err
		}
	}
	logger.Info("offline cache installed", "cache", name, "assets", len(m.manifest)-failed, "failed", failed)

	m.mu.Lock()
	if m.active == nil || m.active.Name() == name {
		m.mu.Unlock()
		return m.activate(c)
	}
	m.waiting = c
	m.mu.Unlock()
	return nil
}

// SkipWaiting activates the waiting version, if any.
func (m *Manager) SkipWaiting() error {
	m.mu.Lock()
	c := m.waiting
	m.mu.Unlock()
	if c == nil {
		return nil
	}
	return m.activate(c)
}

// activate makes c the active version and deletes every other version.
func (m *Manager) activate(c *Cache) error {
	m.mu.Lock()
	m.active = c
	if m.waiting != nil && m.waiting.Name() == c.Name() {
		m.waiting = nil
	}
	m.mu.Unlock()

	if err := atomic.WriteFile(filepath.Join(m.root, activeFile), strings.NewReader(c.Name())); err != nil {
		return fmt.Errorf("recording active cache: %w", err)
	}

	names, err := Names(m.root)
	if err != nil {
		return err
	}
	var errs []error
	for _, n := range names {
		if n == c.Name() {
			continue
		}
		logger.Info("removing old offline cache", "cache", n)
		if err := OpenCache(m.root, n).Delete(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) resolve(ref string) string {
	u, err := m.origin.Parse(ref)
	if err != nil {
		return m.origin.String()
	}
	return u.String()
}

func (m *Manager) sameOrigin(u *url.URL) bool {
	return u != nil && u.Scheme == m.origin.Scheme && u.Host == m.origin.Host
}

// fetch performs a request against the network. sameOrigin reports whether
// the final response, after redirects, came from the origin.
func (m *Manager) fetch(ctx context.Context, method, target string, header http.Header, body io.Reader) (r Response, sameOrigin bool, err error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, false, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return Response{}, false, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, false, fmt.Errorf("reading %s: %w", target, err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, m.sameOrigin(resp.Request.URL), nil
}
