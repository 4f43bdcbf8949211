package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ikkim/dishshot-intake/internal/form"
)

// MemoryStorage keeps objects in process. It backs local development when no bucket
// is configured and the tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]form.File
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://local"
	}
	return &MemoryStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]form.File),
	}
}

func (m *MemoryStorage) Upload(ctx context.Context, key string, file form.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; exists {
		return fmt.Errorf("object %s already exists", key)
	}
	m.objects[key] = file
	return nil
}

func (m *MemoryStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, key)
}

// Object returns the stored file for key.
func (m *MemoryStorage) Object(key string) (form.File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.objects[key]
	return f, ok
}

// Keys lists stored keys in sorted order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
