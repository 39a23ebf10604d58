// Package storage holds uploaded files (finance invoices) in an object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned when uploads are attempted without a bucket
var ErrNotConfigured = errors.New("object storage is not configured")

// Store persists objects and resolves their public URL
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ObjectKey builds a collision-free key under prefix keeping the file extension
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

func joinURL(base, key string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "/" + key
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + key
	return u.String()
}

// MemoryStore keeps objects in memory
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryStore serves URLs under baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	m.mu.Unlock()
	return m.URL(key), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	delete(m.types, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) URL(key string) string {
	return joinURL(m.baseURL, key)
}

// Object returns a stored object and its content type
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

// Keys lists the stored keys in order
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Disabled rejects every upload
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error { return ErrNotConfigured }

func (Disabled) URL(string) string { return "" }
