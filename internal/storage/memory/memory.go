package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/rossyflor/pos-admin/internal/storage"
)

// MemoryStorage is an in-memory storage.Store. Values are lost on restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// New creates an empty MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]map[string]string),
	}
}

func (m *MemoryStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	_ = ctx
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[namespace][key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(ctx context.Context, namespace, key, value string) error {
	_ = ctx
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.values[namespace]
	if !ok {
		ns = make(map[string]string)
		m.values[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, namespace, key string) error {
	_ = ctx
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.values[namespace]
	if !ok {
		return nil
	}
	delete(ns, key)
	if len(ns) == 0 {
		delete(m.values, namespace)
	}
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
