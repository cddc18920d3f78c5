package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav-agent/pranav/pkg/db"
	"github.com/pranav-agent/pranav/pkg/db/migrations"
)

func TestSQLiteBackendRunsMigrations(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.db")

	b, err := NewSQLiteBackend(ctx, dbPath)
	require.NoError(t, err)
	defer b.Close()

	runner := db.NewMigrationRunner(b.db)
	versions, err := runner.GetAppliedVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, len(migrations.All()))
}

func TestSQLiteBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.db")

	first, err := NewSQLiteBackend(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Store(ctx, "temperature", 22.5, "sensors"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteBackend(ctx, dbPath)
	require.NoError(t, err)
	defer second.Close()

	raw, err := second.Retrieve(ctx, "temperature", "sensors")
	require.NoError(t, err)
	assert.Equal(t, "22.5", string(raw))
}

func TestSQLiteBackendUpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.db")

	b, err := NewSQLiteBackend(ctx, dbPath)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store(ctx, "counter", 1, ""))

	var created, updated time.Time
	row := b.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM entries WHERE namespace = ? AND key = ?",
		DefaultNamespace, "counter")
	require.NoError(t, row.Scan(&created, &updated))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Store(ctx, "counter", 2, ""))

	var created2, updated2 time.Time
	row = b.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM entries WHERE namespace = ? AND key = ?",
		DefaultNamespace, "counter")
	require.NoError(t, row.Scan(&created2, &updated2))

	assert.Equal(t, created, created2)
	assert.True(t, updated2.After(updated))
}

func TestSQLiteBackendSingleRowPerKey(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pranav.db")

	b, err := NewSQLiteBackend(ctx, dbPath)
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Store(ctx, "counter", i, ""))
	}

	var count int
	require.NoError(t, b.db.Get(&count, "SELECT COUNT(*) FROM entries"))
	assert.Equal(t, 1, count)
}
