package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pranav-agent/pranav/pkg/logger"
)

const redisKeyPrefix = "pranav"

const (
	redisConnectAttempts = 3
	redisConnectDelay    = 500 * time.Millisecond
	redisPingTimeout     = 5 * time.Second
)

// RedisBackend stores entries in Redis. Each entry lives under
// pranav:entry:<namespace>:<key>; a set per namespace tracks its keys and a
// global set tracks the namespaces, so listing never needs SCAN.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis and verifies the connection with a ping.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address must not be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// In a compose stack the agent can come up before redis accepts
	// connections, so the initial ping retries with backoff.
	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		retry.Attempts(redisConnectAttempts),
		retry.Delay(redisConnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying redis connection")
		}),
	)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return &RedisBackend{client: client}, nil
}

func entryKey(namespace, key string) string {
	return fmt.Sprintf("%s:entry:%s:%s", redisKeyPrefix, namespace, key)
}

func keysKey(namespace string) string {
	return fmt.Sprintf("%s:keys:%s", redisKeyPrefix, namespace)
}

func namespacesKey() string {
	return redisKeyPrefix + ":namespaces"
}

// Store persists a value under key and updates the namespace indexes.
func (b *RedisBackend) Store(ctx context.Context, key string, value any, namespace string) error {
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

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey(ns, key), string(encoded), 0)
		pipe.SAdd(ctx, keysKey(ns), key)
		pipe.SAdd(ctx, namespacesKey(), ns)
		return nil
	})
	return errors.Wrap(err, "failed to store entry")
}

// Retrieve returns the raw JSON stored under key, or ErrNotFound.
func (b *RedisBackend) Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	value, err := b.client.Get(ctx, entryKey(ns, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
		}
		return nil, errors.Wrap(err, "failed to retrieve entry")
	}
	return json.RawMessage(value), nil
}

// Delete removes a key. Deleting a missing key succeeds.
func (b *RedisBackend) Delete(ctx context.Context, key string, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey(ns, key))
		pipe.SRem(ctx, keysKey(ns), key)
		return nil
	})
	return errors.Wrap(err, "failed to delete entry")
}

// ListKeys returns the sorted keys of a namespace.
func (b *RedisBackend) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}

	keys, err := b.client.SMembers(ctx, keysKey(ns)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	sort.Strings(keys)
	return keys, nil
}

// ListNamespaces returns every namespace ever written to, sorted.
func (b *RedisBackend) ListNamespaces(ctx context.Context) ([]string, error) {
	namespaces, err := b.client.SMembers(ctx, namespacesKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list namespaces")
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

func (b *RedisBackend) clearNamespace(ctx context.Context, ns string) error {
	keys, err := b.client.SMembers(ctx, keysKey(ns)).Result()
	if err != nil {
		return errors.Wrap(err, "failed to list keys")
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, entryKey(ns, key))
		}
		pipe.Del(ctx, keysKey(ns))
		pipe.SRem(ctx, namespacesKey(), ns)
		return nil
	})
	return errors.Wrapf(err, "failed to clear namespace %s", ns)
}

// Clear empties a namespace, or every namespace when given an empty one.
func (b *RedisBackend) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		namespaces, err := b.ListNamespaces(ctx)
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			if err := b.clearNamespace(ctx, ns); err != nil {
				return err
			}
		}
		return nil
	}

	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	return b.clearNamespace(ctx, ns)
}

// Close closes the Redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
