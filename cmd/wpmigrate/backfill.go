package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/a1exr0/inplaysoft-strapi/internal/backfill"
	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/entrystore"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill [wxr-file]",
	Short: "Restore original WordPress timestamps on imported entries",
	Long: `backfill re-parses the WXR export and rewrites created/updated/published
timestamps of already-imported entries directly in the CMS database. The
content API stamps these fields itself on create, so this is the only way to
recover the original chronology.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := entrystore.NewStore(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := backfill.Run(cmd.Context(), store, exportFileArg(args))
		if err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}

		log.Printf("done: %d articles, %d knowledgebase entries updated",
			stats.Articles, stats.Knowledgebase)
		return nil
	},
}
