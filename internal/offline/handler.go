package offline

import (
	"net/http"
	"strings"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
)

// hopHeaders are not copied between the client and the origin.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// Intercepts reports whether a request is eligible for the cache. Only GET
// requests are, and never those for browser-extension URLs.
func Intercepts(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return !strings.HasPrefix(r.URL.String(), "chrome-extension://") && r.URL.Scheme != "chrome-extension"
}

// isNavigation reports whether r loads a page rather than a sub-resource.
func isNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// ServeHTTP serves r from the active cache, falling back to the origin.
// Successful same-origin GET responses are cached on the way through. When
// the origin is unreachable, page loads fall back to the cached main page.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == SkipWaitingPath {
		m.serveSkipWaiting(w, r)
		return
	}

	target := m.resolve(strings.TrimPrefix(r.URL.RequestURI(), "/"))
	if !Intercepts(r) {
		m.passThrough(w, r, target)
		return
	}

	m.mu.RLock()
	c := m.active
	m.mu.RUnlock()

	if c != nil {
		if cached, ok := c.Match(target); ok {
			logger.Debug("cache hit", "url", target)
			write(w, cached)
			return
		}
	}

	resp, sameOrigin, err := m.fetch(r.Context(), http.MethodGet, target, forwardHeader(r.Header), nil)
	if err != nil {
		logger.Warn("network fetch failed", "url", target, "err", err)
		if c != nil && isNavigation(r) {
			for _, page := range m.mainPages() {
				if cached, ok := c.Match(page); ok {
					write(w, cached)
					return
				}
			}
		}
		http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
		return
	}

	if c != nil && resp.Status == http.StatusOK && sameOrigin {
		if err := c.Put(target, resp); err != nil {
			logger.Warn("caching response failed", "url", target, "err", err)
		}
	}
	write(w, resp)
}

func (m *Manager) mainPages() []string {
	return []string{m.resolve("./"), m.resolve("./index.html")}
}

func (m *Manager) serveSkipWaiting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := m.SkipWaiting(); err != nil {
		logger.Error("skip waiting failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// passThrough forwards r to the origin untouched by the cache.
func (m *Manager) passThrough(w http.ResponseWriter, r *http.Request, target string) {
	resp, _, err := m.fetch(r.Context(), r.Method, target, forwardHeader(r.Header), r.Body)
	if err != nil {
		http.Error(w, "origin unreachable", http.StatusBadGateway)
		return
	}
	write(w, resp)
}

func forwardHeader(h http.Header) http.Header {
	out := h.Clone()
	for _, k := range hopHeaders {
		out.Del(k)
	}
	return out
}

func write(w http.ResponseWriter, resp Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		w.Header().Del(k)
	}
	w.Header().Del("Content-Length")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
