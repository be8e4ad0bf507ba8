package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/remote-jobs-harvester/internal/extract"
	"github.com/JakeFAU/remote-jobs-harvester/internal/harvest"
)

// newScrapeCmd creates the 'scrape' subcommand for harvesting an explicit
// list of listing URLs, typically to check extraction against live pages.
func newScrapeCmd() *cobra.Command {
	var (
		urls   []string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Harvest specific listing URLs",
		Long: `Runs the harvesting pipeline over the given --url values instead of the
sitemap. Without --url a small built-in sample of listings is used. With
--dry-run nothing is written and already stored listings are still extracted.`,
		Example: `  harvester scrape --dry-run
  harvester scrape --url https://weworkremotely.com/remote-jobs/acme-go-engineer`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			delay := appInstance.Config().Harvest.TestDelay()
			return withBrowser(cmd.Context(), appInstance, func(loader extract.Loader) (harvest.Summary, error) {
				return appInstance.NewHarvester(loader, delay).RunURLs(cmd.Context(), urls, dryRun)
			})
		},
	}
	cmd.Flags().StringArrayVar(&urls, "url", nil, "listing URL to scrape (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and validate without writing to the store")
	return cmd
}
