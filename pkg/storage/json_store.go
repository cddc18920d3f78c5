package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// JSONBackend stores each namespace as a <namespace>.json file under a
// directory. Namespaces are loaded lazily and cached in memory; writes go
// through a temporary file and rename so readers never observe a partial
// file.
type JSONBackend struct {
	dir   string
	mu    sync.Mutex
	cache map[string]map[string]json.RawMessage
}

// NewJSONBackend creates a JSON file-based backend rooted at dir.
func NewJSONBackend(dir string) (*JSONBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create storage directory")
	}

	return &JSONBackend{
		dir:   dir,
		cache: make(map[string]map[string]json.RawMessage),
	}, nil
}

func (b *JSONBackend) namespacePath(namespace string) string {
	return filepath.Join(b.dir, namespace+".json")
}

// load returns the cached namespace data, reading it from disk on first
// access. Callers must hold b.mu.
func (b *JSONBackend) load(namespace string) (map[string]json.RawMessage, error) {
	if data, ok := b.cache[namespace]; ok {
		return data, nil
	}

	data := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(b.namespacePath(namespace))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read namespace %s", namespace)
		}
	} else if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "failed to parse namespace %s", namespace)
	}

	b.cache[namespace] = data
	return data, nil
}

// save writes the cached namespace data to disk atomically. Callers must
// hold b.mu.
func (b *JSONBackend) save(namespace string) error {
	data, ok := b.cache[namespace]
	if !ok {
		return nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode namespace %s", namespace)
	}

	filePath := b.namespacePath(namespace)
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary namespace file")
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary namespace file")
	}

	return nil
}

// Store persists a value under key in the given namespace.
func (b *JSONBackend) Store(ctx context.Context, key string, value any, namespace string) error {
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

	data, err := b.load(ns)
	if err != nil {
		return err
	}
	data[key] = encoded
	return b.save(ns)
}

// Retrieve returns the raw JSON stored under key, or ErrNotFound.
func (b *JSONBackend) Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load(ns)
	if err != nil {
		return nil, err
	}
	value, ok := data[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key succeeds.
func (b *JSONBackend) Delete(ctx context.Context, key string, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load(ns)
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return b.save(ns)
}

// ListKeys returns the sorted keys of a namespace.
func (b *JSONBackend) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load(ns)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListNamespaces returns every namespace known to the backend, cached or
// on disk, sorted.
func (b *JSONBackend) ListNamespaces(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.listNamespacesLocked()
}

func (b *JSONBackend) listNamespacesLocked() ([]string, error) {
	seen := make(map[string]bool)
	// Reads of absent namespaces leave empty cache entries behind; only
	// namespaces with data or a file on disk count as existing.
	for ns, data := range b.cache {
		if len(data) > 0 {
			seen[ns] = true
		}
	}

	files, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read storage directory")
	}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		seen[strings.TrimSuffix(file.Name(), ".json")] = true
	}

	namespaces := make([]string, 0, len(seen))
	for ns := range seen {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// Clear removes a namespace and its file. An empty namespace argument
// clears every namespace, cached or on disk.
func (b *JSONBackend) Clear(ctx context.Context, namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if namespace == "" {
		namespaces, err := b.listNamespacesLocked()
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			if err := b.clearLocked(ns); err != nil {
				return err
			}
		}
		return nil
	}

	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	return b.clearLocked(ns)
}

func (b *JSONBackend) clearLocked(namespace string) error {
	delete(b.cache, namespace)
	if err := os.Remove(b.namespacePath(namespace)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to clear namespace %s", namespace)
	}
	return nil
}

// Close is a no-op for the JSON backend.
func (b *JSONBackend) Close() error {
	return nil
}
