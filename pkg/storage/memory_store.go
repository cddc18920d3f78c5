package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryBackend keeps entries in process memory. It backs ephemeral runs and
// tests; nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]map[string]json.RawMessage),
	}
}

// Store persists a value under key in the given namespace.
func (b *MemoryBackend) Store(ctx context.Context, key string, value any, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data[ns] == nil {
		b.data[ns] = make(map[string]json.RawMessage)
	}
	b.data[ns][key] = encoded
	return nil
}

// Retrieve returns the raw JSON stored under key, or ErrNotFound.
func (b *MemoryBackend) Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.data[ns][key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key succeeds.
func (b *MemoryBackend) Delete(ctx context.Context, key string, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.data[ns], key)
	return nil
}

// ListKeys returns the sorted keys of a namespace.
func (b *MemoryBackend) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.data[ns]))
	for key := range b.data[ns] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListNamespaces returns every namespace, sorted.
func (b *MemoryBackend) ListNamespaces(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	namespaces := make([]string, 0, len(b.data))
	for ns := range b.data {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// Clear empties a namespace, or everything when given an empty one.
func (b *MemoryBackend) Clear(ctx context.Context, namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if namespace == "" {
		b.data = make(map[string]map[string]json.RawMessage)
		return nil
	}

	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	delete(b.data, ns)
	return nil
}

// Close is a no-op for the in-memory backend.
func (b *MemoryBackend) Close() error {
	return nil
}
