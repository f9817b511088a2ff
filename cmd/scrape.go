package main

import (
	"github.com/spf13/cobra"
)

var scrapeURL string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a single recipe page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initScrapeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		recipe, err := env.scrapeOne(ctx, scrapeURL)
		if err != nil {
			return err
		}

		return printJSON(recipe)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "recipe page URL (required)")
	_ = scrapeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(scrapeCmd)
}
