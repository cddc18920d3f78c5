package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/pranav-agent/pranav/pkg/db"
	"github.com/pranav-agent/pranav/pkg/db/migrations"
)

// SQLiteBackend stores entries in a single SQLite table keyed by
// (namespace, key). The schema is managed by pkg/db migrations, which run
// when the backend is opened.
type SQLiteBackend struct {
	dbPath string
	db     *sqlx.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath and applies
// pending migrations.
func NewSQLiteBackend(ctx context.Context, dbPath string) (*SQLiteBackend, error) {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(sqlDB)
	if err := runner.Run(ctx, migrations.All()); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	return &SQLiteBackend{
		dbPath: dbPath,
		db:     sqlDB,
	}, nil
}

// Store inserts or updates an entry, preserving its original created_at.
func (b *SQLiteBackend) Store(ctx context.Context, key string, value any, namespace string) error {
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

	now := time.Now().UTC()
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO entries (namespace, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, ns, key, string(encoded), now, now)
	return errors.Wrap(err, "failed to store entry")
}

// Retrieve returns the raw JSON stored under key, or ErrNotFound.
func (b *SQLiteBackend) Retrieve(ctx context.Context, key string, namespace string) (json.RawMessage, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value string
	err = b.db.GetContext(ctx, &value,
		"SELECT value FROM entries WHERE namespace = ? AND key = ?", ns, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "key %s in namespace %s", key, ns)
		}
		return nil, errors.Wrap(err, "failed to retrieve entry")
	}
	return json.RawMessage(value), nil
}

// Delete removes a key. Deleting a missing key succeeds.
func (b *SQLiteBackend) Delete(ctx context.Context, key string, namespace string) error {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	_, err = b.db.ExecContext(ctx,
		"DELETE FROM entries WHERE namespace = ? AND key = ?", ns, key)
	return errors.Wrap(err, "failed to delete entry")
}

// ListKeys returns the sorted keys of a namespace.
func (b *SQLiteBackend) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	ns, err := resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	err = b.db.SelectContext(ctx, &keys,
		"SELECT key FROM entries WHERE namespace = ? ORDER BY key", ns)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	return keys, nil
}

// ListNamespaces returns every namespace with at least one entry, sorted.
func (b *SQLiteBackend) ListNamespaces(ctx context.Context) ([]string, error) {
	namespaces := []string{}
	err := b.db.SelectContext(ctx, &namespaces,
		"SELECT DISTINCT namespace FROM entries ORDER BY namespace")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list namespaces")
	}
	return namespaces, nil
}

// Clear removes every entry in a namespace, or every entry in the database
// when the namespace is empty.
func (b *SQLiteBackend) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		_, err := b.db.ExecContext(ctx, "DELETE FROM entries")
		return errors.Wrap(err, "failed to clear storage")
	}

	ns, err := resolveNamespace(namespace)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, "DELETE FROM entries WHERE namespace = ?", ns)
	return errors.Wrapf(err, "failed to clear namespace %s", ns)
}

// Close closes the underlying database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
