// Package storage provides namespaced key-value persistence for the agent.
// Values are JSON-encoded on write and returned as raw JSON on read, so any
// backend can hold arbitrarily shaped data. Backends share one interface and
// are selected through the factory in this package.
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultNamespace is used whenever an operation is given an empty namespace.
const DefaultNamespace = "default"

// ErrNotFound is returned when a key does not exist in the requested namespace.
var ErrNotFound = errors.New("entry not found")

// Backend is the interface all storage implementations satisfy.
//
// Namespace semantics: an empty namespace resolves to DefaultNamespace on
// every operation except Clear, where an empty namespace clears ALL
// namespaces. Delete of a missing key succeeds.
type Backend interface {
	Store(ctx context.Context, key string, value any, namespace string) error
	Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error)
	Delete(ctx context.Context, key string, namespace string) error
	ListKeys(ctx context.Context, namespace string) ([]string, error)
	ListNamespaces(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config selects and configures a storage backend.
type Config struct {
	Backend  string // "json", "sqlite", "bolt", "redis" or "memory"
	Dir      string // base directory for the json backend
	DBFile   string // database file for the sqlite backend
	BoltFile string // database file for the bolt backend
	Redis    RedisConfig
}

// DefaultBasePath returns the directory pranav keeps its data under.
func DefaultBasePath() (string, error) {
	if basePath := os.Getenv("PRANAV_BASE_PATH"); basePath != "" {
		return basePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".pranav"), nil
}

// DefaultConfig returns the configuration used when nothing is set:
// JSON files under the pranav base path.
func DefaultConfig() (Config, error) {
	basePath, err := DefaultBasePath()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Backend:  "json",
		Dir:      filepath.Join(basePath, "storage"),
		DBFile:   filepath.Join(basePath, "pranav.db"),
		BoltFile: filepath.Join(basePath, "pranav.bolt"),
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}, nil
}

// resolveNamespace applies the default and rejects names that would escape
// the backend's keyspace (the json backend maps namespaces to file names).
func resolveNamespace(namespace string) (string, error) {
	if namespace == "" {
		return DefaultNamespace, nil
	}
	if strings.ContainsAny(namespace, "/\\\x00") || namespace == "." || namespace == ".." {
		return "", errors.Errorf("invalid namespace %q", namespace)
	}
	return namespace, nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key must not be empty")
	}
	if strings.ContainsRune(key, '\x00') {
		return errors.Errorf("invalid key %q", key)
	}
	return nil
}

// encodeValue converts a value to its stored JSON form. json.RawMessage
// passes through verbatim via its Marshaler implementation.
func encodeValue(value any) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode value")
	}
	return data, nil
}
