package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/scraper"
)

var profileCmd = &cobra.Command{
	Use:   "profile <website>",
	Short: "Print the stored business profile of a website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		website := scraper.NormalizeWebsite(args[0])
		refresh, _ := cmd.Flags().GetBool("refresh")

		a, err := buildApp(ctx, cfg, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		var profile *models.BusinessProfile
		if refresh {
			docs, err := a.crawler.Crawl(ctx, website, cfg.Scraper.PageLimit)
			if err != nil {
				return err
			}
			if profile, err = a.detector.DetectAndStore(ctx, website, docs); err != nil {
				return err
			}
		} else if profile, err = a.store.GetFact(ctx, website); err != nil {
			return err
		}

		if profile == nil {
			color.Yellow("No profile stored for %s (run with --refresh)\n", website)
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	profileCmd.Flags().Bool("refresh", false, "crawl the website and detect the profile again")
	rootCmd.AddCommand(profileCmd)
}
