package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConfiguresDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pranav.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, VerifyConfiguration(db))
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "data", "pranav.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("with PRANAV_BASE_PATH", func(t *testing.T) {
		t.Setenv("PRANAV_BASE_PATH", "/custom/path")

		path, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, "/custom/path/pranav.db", path)
	})

	t.Run("without PRANAV_BASE_PATH", func(t *testing.T) {
		t.Setenv("PRANAV_BASE_PATH", "")

		path, err := DefaultDBPath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".pranav", "pranav.db"), path)
	})
}

func testMigrations() []Migration {
	return []Migration{
		{
			Version:     20250101000001,
			Description: "Create notes table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)")
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP TABLE notes")
				return err
			},
		},
		{
			Version:     20250101000002,
			Description: "Add body column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE notes ADD COLUMN body TEXT")
				return err
			},
		},
	}
}

func TestMigrationRunnerAppliesInOrder(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "pranav.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := testMigrations()
	// Reverse the slice; the runner must sort by version before applying.
	migrations[0], migrations[1] = migrations[1], migrations[0]

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20250101000001, 20250101000002}, versions)

	var hasTable bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='notes'
	`).Scan(&hasTable)
	require.NoError(t, err)
	assert.True(t, hasTable)
}

func TestMigrationRunnerIdempotent(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "pranav.db"))
	require.NoError(t, err)
	defer db.Close()

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), testMigrations()))
	require.NoError(t, runner.Run(context.Background(), testMigrations()))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, count)
}

func TestMigrationRunnerRollback(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "pranav.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := testMigrations()[:1]
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	require.NoError(t, runner.Rollback(context.Background(), migrations))

	var hasTable bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='notes'
	`).Scan(&hasTable)
	require.NoError(t, err)
	assert.False(t, hasTable)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestMigrationRunnerRollbackWithoutDown(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "pranav.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := testMigrations()
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	// The latest migration has no Down function.
	err = runner.Rollback(context.Background(), migrations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rollback function")
}
