package main

import (
	"github.com/spf13/cobra"
)

// Default export filename when no positional argument is given.
const defaultExportFile = "wordpress-export.xml"

var rootCmd = &cobra.Command{
	Use:   "wpmigrate",
	Short: "Migrate a WordPress XML export into the CMS",
	Long: `wpmigrate moves content out of a WordPress eXtended RSS (WXR) export:
posts are classified into articles and knowledgebase entries, cover images are
re-hosted, SEO redirects are emitted, and a separate pass restores original
publish timestamps.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backfillCmd)
}

func exportFileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultExportFile
}
