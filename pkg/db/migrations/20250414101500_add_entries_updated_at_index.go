package migrations

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pranav-agent/pranav/pkg/db"
)

// Migration20250414101500AddEntriesUpdatedAtIndex adds an index for recency queries.
func Migration20250414101500AddEntriesUpdatedAtIndex() db.Migration {
	return db.Migration{
		Version:     20250414101500,
		Description: "Add entries updated_at index",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_entries_updated_at
				ON entries (updated_at DESC)
			`); err != nil {
				return errors.Wrap(err, "failed to create entries updated_at index")
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP INDEX IF EXISTS idx_entries_updated_at"); err != nil {
				return errors.Wrap(err, "failed to drop entries updated_at index")
			}
			return nil
		},
	}
}
