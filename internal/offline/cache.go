// Package offline keeps a versioned copy of the web app's assets and serves
// them cache-first, so the app keeps loading when its origin is unreachable.
package offline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/peterbourgon/diskv/v3"
)

// Response is a cached HTTP response.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Cache is one named cache version stored on disk.
type Cache struct {
	name string
	d    *diskv.Diskv
}

// OpenCache opens (or creates) the cache called name under root.
func OpenCache(root, name string) *Cache {
	return &Cache{
		name: name,
		d: diskv.New(diskv.Options{
			BasePath:     filepath.Join(root, name),
			TempDir:      filepath.Join(root, ".tmp"),
			CacheSizeMax: 8 * 1024 * 1024,
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
	}
}

// Name returns the cache version name.
func (c *Cache) Name() string { return c.name }

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Match returns the response stored for url.
func (c *Cache) Match(url string) (Response, bool) {
	key := cacheKey(url)
	if !c.d.Has(key) {
		return Response{}, false
	}
	data, err := c.d.Read(key)
	if err != nil {
		return Response{}, false
	}
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		_ = c.d.Erase(key)
		return Response{}, false
	}
	return r, true
}

// Put stores r for url.
func (c *Cache) Put(url string, r Response) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding cached response: %w", err)
	}
	if err := c.d.Write(cacheKey(url), data); err != nil {
		return fmt.Errorf("writing cache %s: %w", c.name, err)
	}
	return nil
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	n := 0
	for range c.d.Keys(nil) {
		n++
	}
	return n
}

// Delete removes the whole cache version.
func (c *Cache) Delete() error {
	return c.d.EraseAll()
}

// Names lists the cache versions present under root.
func Names(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing caches: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != ".tmp" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
