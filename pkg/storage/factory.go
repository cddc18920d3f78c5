package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// OpenFunc constructs a Backend from a Config.
type OpenFunc func(ctx context.Context, cfg Config) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

func init() {
	Register("json", func(ctx context.Context, cfg Config) (Backend, error) {
		return NewJSONBackend(cfg.Dir)
	})
	Register("sqlite", func(ctx context.Context, cfg Config) (Backend, error) {
		return NewSQLiteBackend(ctx, cfg.DBFile)
	})
	Register("bolt", func(ctx context.Context, cfg Config) (Backend, error) {
		return NewBoltBackend(cfg.BoltFile)
	})
	Register("redis", func(ctx context.Context, cfg Config) (Backend, error) {
		return NewRedisBackend(ctx, cfg.Redis)
	})
	Register("memory", func(ctx context.Context, cfg Config) (Backend, error) {
		return NewMemoryBackend(), nil
	})
}

// Register makes a backend available under the given name. Registering an
// existing name replaces the previous opener.
func Register(name string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = open
}

// Open creates the backend selected by cfg.Backend, falling back to the
// default configuration for any zero fields.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	defaults, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Backend == "" {
		cfg.Backend = defaults.Backend
	}
	if cfg.Dir == "" {
		cfg.Dir = defaults.Dir
	}
	if cfg.DBFile == "" {
		cfg.DBFile = defaults.DBFile
	}
	if cfg.BoltFile == "" {
		cfg.BoltFile = defaults.BoltFile
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}

	registryMu.RLock()
	open, ok := registry[cfg.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown storage backend %q (available: %s)",
			cfg.Backend, strings.Join(Available(), ", "))
	}

	backend, err := open(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s storage backend", cfg.Backend)
	}
	return backend, nil
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
