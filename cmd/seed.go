package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelblog/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo content",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, _ := cmd.Flags().GetInt("categories")
		posts, _ := cmd.Flags().GetInt("posts")
		seed, _ := cmd.Flags().GetInt64("seed")

		_, _, db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(db); err != nil {
			return err
		}
		if err := database.Seed(db, categories, posts, seed); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d posts\n", categories, posts)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("categories", 5, "number of categories to create")
	seedCmd.Flags().Int("posts", 20, "number of posts to create")
	seedCmd.Flags().Int64("seed", 1, "random seed for the generated content")
	rootCmd.AddCommand(seedCmd)
}
