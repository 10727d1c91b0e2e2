package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelblog/blog"
	"travelblog/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached pages",
	Long: `Remove cached pages.

Without flags every cached page is removed. --post limits the purge to one
post and --expired removes only pages whose time to live has passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, _ := cmd.Flags().GetUint("post")
		expired, _ := cmd.Flags().GetBool("expired")
		out := cmd.OutOrStdout()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := cache.New(cfg, logger)
		if err != nil {
			return err
		}
		if store == nil {
			fmt.Fprintln(out, "page cache is disabled")
			return nil
		}

		if expired {
			fs, ok := store.(*cache.FileStore)
			if !ok {
				fmt.Fprintln(out, "redis expires pages on its own; nothing to do")
				return nil
			}
			removed, err := fs.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %d expired pages\n", removed)
			return nil
		}

		scope := ""
		if postID != 0 {
			scope = blog.PageScope(postID)
		}
		removed, err := store.Clear(cmd.Context(), scope)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d cached pages\n", removed)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Uint("post", 0, "only purge pages of this post id")
	cachePurgeCmd.Flags().Bool("expired", false, "only purge expired pages (file cache)")
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
