package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plateful/recipe-cli/internal/model"
)

var (
	batchFile        string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape recipe URLs from a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls, err := readURLFile(batchFile)
		if err != nil {
			return err
		}

		env, err := initScrapeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		return processBatch(ctx, urls, batchLimit, concurrency, func(ctx context.Context, url string) (*model.Recipe, error) {
			return env.scrapeOne(ctx, url)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one recipe URL per line (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of URLs to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent scrapes (default from config)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readURLFile reads one URL per line, skipping blank lines and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open url file")
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read url file")
	}
	return urls, nil
}

// scrapeFunc is the callback signature for scraping a single URL.
type scrapeFunc func(ctx context.Context, url string) (*model.Recipe, error)

// processBatch applies limit, then scrapes URLs concurrently. Individual
// failures are logged and skipped; they never abort the batch.
func processBatch(ctx context.Context, urls []string, limit, concurrency int, scrape scrapeFunc) error {
	if len(urls) == 0 {
		zap.L().Info("no urls to process")
		return nil
	}

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, url := range urls {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", url))

			recipe, err := scrape(gctx, url)
			if err != nil {
				failed.Add(1)
				log.Error("scrape failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("scrape complete",
				zap.String("id", recipe.ID),
				zap.String("method", string(recipe.ExtractionMethod)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
