package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestBoltBackendBucketPerNamespace(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.bolt")

	b, err := NewBoltBackend(dbPath)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store(ctx, "user_name", "Alice", "users"))

	err = b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte("users"))
		require.NotNil(t, bucket)
		assert.JSONEq(t, `"Alice"`, string(bucket.Get([]byte("user_name"))))
		return nil
	})
	require.NoError(t, err)
}

func TestBoltBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.bolt")

	first, err := NewBoltBackend(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Store(ctx, "counter", 42, ""))
	require.NoError(t, first.Close())

	second, err := NewBoltBackend(dbPath)
	require.NoError(t, err)
	defer second.Close()

	raw, err := second.Retrieve(ctx, "counter", "")
	require.NoError(t, err)
	assert.Equal(t, "42", string(raw))
}

func TestBoltBackendRetrieveCopiesData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.bolt")

	b, err := NewBoltBackend(dbPath)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store(ctx, "k", "before", ""))
	raw, err := b.Retrieve(ctx, "k", "")
	require.NoError(t, err)

	// The returned slice must stay valid after later transactions.
	require.NoError(t, b.Store(ctx, "k", "after", ""))
	assert.JSONEq(t, `"before"`, string(raw))
}

func TestBoltBackendCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "deep", "nested", "pranav.bolt")

	b, err := NewBoltBackend(dbPath)
	require.NoError(t, err)
	defer b.Close()

	assert.FileExists(t, dbPath)
}
