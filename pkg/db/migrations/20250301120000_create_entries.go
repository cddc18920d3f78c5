package migrations

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pranav-agent/pranav/pkg/db"
)

// Migration20250301120000CreateEntries creates the namespaced key-value entries table.
func Migration20250301120000CreateEntries() db.Migration {
	return db.Migration{
		Version:     20250301120000,
		Description: "Create entries table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS entries (
					namespace TEXT NOT NULL,
					key TEXT NOT NULL,
					value TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					PRIMARY KEY (namespace, key)
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create entries table")
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS entries"); err != nil {
				return errors.Wrap(err, "failed to drop entries table")
			}
			return nil
		},
	}
}
