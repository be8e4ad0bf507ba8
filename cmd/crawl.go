package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/remote-jobs-harvester/internal/extract"
	"github.com/JakeFAU/remote-jobs-harvester/internal/harvest"
)

// newCrawlCmd creates the 'crawl' subcommand, which walks the sitemap and
// harvests every listing it names.
func newCrawlCmd() *cobra.Command {
	var (
		sitemapURL string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest every listing named by the sitemap",
		Long: `Fetches the sitemap (recursing through nested sitemap indexes), then loads,
extracts, validates and stores each listing page in turn. Listings that are
already stored are skipped before their page is loaded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config().Harvest
			if sitemapURL == "" {
				sitemapURL = cfg.SitemapURL
			}
			return withBrowser(cmd.Context(), appInstance, func(loader extract.Loader) (harvest.Summary, error) {
				return appInstance.NewHarvester(loader, cfg.RequestDelay()).Run(cmd.Context(), sitemapURL, dryRun)
			})
		},
	}
	cmd.Flags().StringVar(&sitemapURL, "sitemap", "", "root sitemap URL (defaults to harvest.sitemap_url)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and validate without writing to the store")
	return cmd
}

// withBrowser opens the page loader, runs fn and releases the browser on
// every exit path.
func withBrowser(ctx context.Context, appInstance App, fn func(extract.Loader) (harvest.Summary, error)) error {
	logger := appInstance.Logger()
	session, err := appInstance.OpenBrowser()
	if err != nil {
		return err
	}
	defer session.Close()

	if _, err := fn(session); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run harvest: %w", err)
	}
	if ctx.Err() != nil {
		logger.Warn("harvest interrupted")
	}
	return nil
}
