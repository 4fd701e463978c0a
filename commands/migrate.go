package commands

import (
	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Long: `Runs AutoMigrate for tables and reservations. With OVERLAP_CONSTRAINT=true
on postgres it also installs the reservation exclusion constraint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := bootstrap(); err != nil {
			return err
		}
		defer closeDB()

		utils.InfoLogger.Info("Schema is up to date")
		return nil
	},
}
