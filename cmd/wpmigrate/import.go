package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/a1exr0/inplaysoft-strapi/internal/assets"
	"github.com/a1exr0/inplaysoft-strapi/internal/cms"
	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import [wxr-file]",
	Short: "Import posts, covers and redirects from a WXR export",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateForImport(); err != nil {
			return err
		}

		client := cms.NewClient(cfg.CMS)
		uploader, err := assets.NewUploader(cfg.Upload, client)
		if err != nil {
			return err
		}
		pipeline := assets.NewPipeline(uploader, cfg.CMS.Timeout, cfg.Import.RetryCount)

		log.Printf("importing into %s", cfg.CMS.BaseURL)
		stats, err := importer.New(client, pipeline, cfg.Import).Run(cmd.Context(), exportFileArg(args))
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		// Individual post failures are logged, not escalated; the run is
		// successful as long as setup and the batch itself completed.
		log.Printf("done: %d processed, %d skipped, %d failed, %d redirects",
			stats.Processed, stats.Skipped, stats.Failed, stats.Redirects)
		return nil
	},
}
