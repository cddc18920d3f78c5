// Package migrations contains all database migrations for pranav.
// Migrations use Rails-style timestamp versioning (YYYYMMDDHHmmss).
package migrations

import (
	"github.com/pranav-agent/pranav/pkg/db"
)

// All returns all registered migrations in the correct order.
// New migrations should be added to this list.
func All() []db.Migration {
	return []db.Migration{
		Migration20250301120000CreateEntries(),
		Migration20250414101500AddEntriesUpdatedAtIndex(),
	}
}
