package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/plateful/recipe-cli/internal/config"
	"github.com/plateful/recipe-cli/internal/extract"
	"github.com/plateful/recipe-cli/internal/fetcher"
	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/normalize"
	"github.com/plateful/recipe-cli/internal/registry"
	"github.com/plateful/recipe-cli/internal/store"
	anthropicpkg "github.com/plateful/recipe-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "recipes.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolConfigFrom(cfg.Store))
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// poolConfigFrom maps configured pool sizing onto the store's tuning struct.
// Unset values stay zero so the store applies its own defaults.
func poolConfigFrom(sc config.StoreConfig) *store.PoolConfig {
	return &store.PoolConfig{
		MaxConns: sc.MaxConns,
		MinConns: sc.MinConns,
	}
}

// scrapeEnv bundles the store, fetcher, and extraction cascade shared by the
// scrape, batch, and serve commands.
type scrapeEnv struct {
	Store   store.Store
	Fetcher fetcher.Fetcher
	Cascade *extract.Cascade
}

func (e *scrapeEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close", zap.Error(err))
	}
}

func initScrapeEnv(ctx context.Context) (*scrapeEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	overrides, err := registry.Load(cfg.Scrape.SiteOverridesPath)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "load site overrides")
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		PerHostRate:  rate.Limit(cfg.Fetch.PerHostRate),
		PerHostBurst: cfg.Fetch.PerHostBurst,
	})

	return &scrapeEnv{
		Store:   st,
		Fetcher: f,
		Cascade: extract.NewCascade(overrides),
	}, nil
}

// scrapeOne fetches a page, runs the extraction cascade, and persists the
// resulting recipe.
func (e *scrapeEnv) scrapeOne(ctx context.Context, rawURL string) (*model.Recipe, error) {
	page, err := e.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	draft, err := e.Cascade.Scrape(page.HTML, page.FinalURL)
	if err != nil {
		return nil, err
	}

	created, err := e.Store.CreateRecipe(ctx, draft)
	if err != nil {
		return nil, eris.Wrap(err, "persist recipe")
	}

	zap.L().Info("recipe scraped",
		zap.String("id", created.ID),
		zap.String("url", created.SourceURL),
		zap.String("method", string(created.ExtractionMethod)),
		zap.Int("ingredients", len(created.Ingredients)),
	)
	return created, nil
}

func initNormalizer() normalize.Normalizer {
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return normalize.NewAnthropicNormalizer(client, normalize.Options{
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
	})
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(rootCmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
