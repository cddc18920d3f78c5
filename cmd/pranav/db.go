package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pranav-agent/pranav/pkg/db"
	"github.com/pranav-agent/pranav/pkg/db/migrations"
	"github.com/pranav-agent/pranav/pkg/presenter"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing the pranav database (migrations, status, etc.)`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database migration status",
	Long:  `Shows the current database migration status, including applied and pending migrations.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dbPath, err := databasePath()
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}

		applied, err := db.GetMigrationStatus(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		appliedMap := make(map[int64]bool)
		for _, v := range applied {
			appliedMap[v] = true
		}

		allMigrations := migrations.All()

		fmt.Println("Database Migration Status")
		fmt.Println("=========================")
		fmt.Printf("Database: %s\n\n", dbPath)

		appliedCount := 0
		for _, m := range allMigrations {
			status := "[ ]"
			if appliedMap[m.Version] {
				status = "[✓]"
				appliedCount++
			}
			fmt.Printf("%s %d - %s\n", status, m.Version, m.Description)
		}

		fmt.Printf("\nApplied: %d/%d migrations\n", appliedCount, len(allMigrations))

		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback database migrations",
	Long: `Rolls back the most recently applied database migration. With --to,
keeps rolling back until the given version is the newest applied one.
Useful for testing or downgrading pranav.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dbPath, err := databasePath()
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}

		var target int64
		if cmd.Flags().Changed("to") {
			target, _ = cmd.Flags().GetInt64("to")
		} else {
			// Without --to, roll back exactly one migration: the target
			// is whatever comes before the newest applied version.
			applied, err := db.GetMigrationStatus(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			if len(applied) == 0 {
				presenter.Warning("No migrations to rollback")
				return nil
			}
			target = applied[len(applied)-1] - 1
		}

		rolledBack := 0
		for {
			applied, err := db.GetMigrationStatus(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			if len(applied) == 0 {
				break
			}

			lastVersion := applied[len(applied)-1]
			if lastVersion <= target {
				break
			}

			// Find the migration description
			var description string
			for _, m := range migrations.All() {
				if m.Version == lastVersion {
					description = m.Description
					break
				}
			}

			presenter.Info(fmt.Sprintf("Rolling back migration %d: %s", lastVersion, description))

			if err := db.RollbackMigration(ctx, dbPath, migrations.All()); err != nil {
				return fmt.Errorf("failed to rollback migration: %w", err)
			}

			presenter.Success(fmt.Sprintf("Successfully rolled back migration %d", lastVersion))
			rolledBack++
		}

		if rolledBack == 0 {
			presenter.Warning("No migrations to rollback")
		}

		return nil
	},
}

// databasePath resolves the SQLite database location, honouring the
// storage configuration before falling back to the default path.
func databasePath() (string, error) {
	if dbFile := viper.GetString("storage.db_file"); dbFile != "" {
		return dbFile, nil
	}
	return db.DefaultDBPath()
}

func init() {
	dbRollbackCmd.Flags().Int64("to", 0, "Roll back until this version is the newest applied migration")

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbRollbackCmd)
}
