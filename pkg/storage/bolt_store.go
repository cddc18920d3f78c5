package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// BoltBackend stores entries in a bbolt database with one bucket per
// namespace. The database stays open for the lifetime of the backend; the
// process owns the file exclusively.
type BoltBackend struct {
	dbPath string
	db     *bbolt.DB
}

// NewBoltBackend opens (or creates) the bbolt database at dbPath.
func NewBoltBackend(dbPath string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return &BoltBackend{
		dbPath: dbPath,
		db:     db,
	}, nil
}

// Store persists a value under key, creating the namespace bucket if needed.
func (b *BoltBackend) Store(ctx context.Context, key string, value any, namespace string) error {
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

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return errors.Wrapf(err, "failed to create namespace bucket %s", ns)
		}
		return errors.Wrap(bucket.Put([]byte(key), encoded), "failed to store entry")
	})
}

// Retrieve returns the raw JSON stored under key, or ErrNotFound.
func (b *BoltBackend) Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value json.RawMessage
	err = b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
		}
		// Copy out: bbolt memory is only valid inside the transaction.
		value = append(json.RawMessage(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key or namespace succeeds.
func (b *BoltBackend) Delete(ctx context.Context, key string, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return errors.Wrap(bucket.Delete([]byte(key)), "failed to delete entry")
	})
}

// ListKeys returns the sorted keys of a namespace.
func (b *BoltBackend) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	err = b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	sort.Strings(keys)
	return keys, nil
}

// ListNamespaces returns every namespace bucket, sorted.
func (b *BoltBackend) ListNamespaces(ctx context.Context) ([]string, error) {
	namespaces := []string{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			namespaces = append(namespaces, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list namespaces")
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// Clear drops a namespace bucket, or every bucket when the namespace is
// empty.
func (b *BoltBackend) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		return b.db.Update(func(tx *bbolt.Tx) error {
			var names [][]byte
			if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
				names = append(names, append([]byte(nil), name...))
				return nil
			}); err != nil {
				return err
			}
			for _, name := range names {
				if err := tx.DeleteBucket(name); err != nil {
					return errors.Wrapf(err, "failed to clear namespace %s", name)
				}
			}
			return nil
		})
	}

	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(ns))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return errors.Wrapf(err, "failed to clear namespace %s", ns)
	})
}

// Close closes the underlying database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
