package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// ErrNotFound is returned by KV.Get for absent keys.
var ErrNotFound = errors.New("key not found")

// KV is a flat string-keyed byte store.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}

// DiskKV stores one file per key under a base directory.
type DiskKV struct {
	d *diskv.Diskv
}

// OpenDisk returns a DiskKV rooted at dir. Writes go through a temp
// directory and are renamed into place.
func OpenDisk(dir string) (*DiskKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating directories: %w", err)
	}
	return &DiskKV{d: diskv.New(diskv.Options{
		BasePath:     filepath.Join(dir, "store"),
		TempDir:      filepath.Join(dir, "tmp"),
		CacheSizeMax: 1024 * 1024, // 1MB
		FilePerm:     0o600,
		PathPerm:     0o700,
	})}, nil
}

func (k *DiskKV) Get(key string) ([]byte, error) {
	if !k.d.Has(key) {
		return nil, ErrNotFound
	}
	data, err := k.d.Read(key)
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", key, err)
	}
	return data, nil
}

func (k *DiskKV) Set(key string, value []byte) error {
	if err := k.d.Write(key, value); err != nil {
		return fmt.Errorf("storage error writing %s: %w", key, err)
	}
	return nil
}

func (k *DiskKV) Remove(key string) error {
	if !k.d.Has(key) {
		return nil
	}
	if err := k.d.Erase(key); err != nil {
		return fmt.Errorf("storage error removing %s: %w", key, err)
	}
	return nil
}

func (k *DiskKV) Close() error { return nil }

// MemoryKV is an in-memory KV used by tests and dry runs.
type MemoryKV struct {
	m map[string][]byte
	// FailWrites makes Set return an error.
	FailWrites bool
}

// NewMemory returns an empty MemoryKV.
func NewMemory() *MemoryKV {
	return &MemoryKV{m: map[string][]byte{}}
}

func (k *MemoryKV) Get(key string) ([]byte, error) {
	v, ok := k.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (k *MemoryKV) Set(key string, value []byte) error {
	if k.FailWrites {
		return fmt.Errorf("storage error writing %s: quota exceeded", key)
	}
	k.m[key] = append([]byte(nil), value...)
	return nil
}

func (k *MemoryKV) Remove(key string) error {
	delete(k.m, key)
	return nil
}

func (k *MemoryKV) Close() error { return nil }
