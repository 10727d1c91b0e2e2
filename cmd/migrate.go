package cmd

import (
	"github.com/spf13/cobra"

	"travelblog/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := openDatabase()
		if err != nil {
			return err
		}
		return database.RunMigrations(db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
