package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/normalize"
	"github.com/plateful/recipe-cli/internal/reconcile"
	"github.com/plateful/recipe-cli/internal/store"
)

var (
	reparseID    string
	reparseAll   bool
	reparseForce bool
)

var reparseCmd = &cobra.Command{
	Use:   "reparse",
	Short: "Normalize ingredient lines via the AI reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reparse"); err != nil {
			return err
		}
		if reparseID == "" && !reparseAll {
			return eris.New("reparse: either --id or --all is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		recipes, err := reparseTargets(ctx, st, reparseID)
		if err != nil {
			return err
		}

		updated, skipped, failed := runReparse(ctx, st, initNormalizer(), recipes, reparseForce)

		zap.L().Info("reparse complete",
			zap.Int("updated", updated),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
		)
		if failed > 0 {
			return eris.Errorf("reparse: %d recipe(s) failed", failed)
		}
		return nil
	},
}

var errUpToDate = eris.New("reparse: recipe already up to date")

// reparseTargets selects the recipes to reconcile. For --all the listing
// carries no status filter and no row cap: a parsing-version bump makes
// recipes already marked done stale again, and the reconciler no-ops the
// genuinely up-to-date ones without a normalizer call.
func reparseTargets(ctx context.Context, st store.Store, id string) ([]model.Recipe, error) {
	if id != "" {
		r, err := st.GetRecipe(ctx, id)
		if err != nil {
			return nil, err
		}
		return []model.Recipe{*r}, nil
	}
	return st.ListRecipes(ctx, store.Filter{Limit: -1})
}

// cachePrimer is implemented by normalizers that can warm a shared prompt
// cache before a run of consecutive recipes.
type cachePrimer interface {
	Prime(ctx context.Context) error
}

// runReparse reconciles each recipe in turn, persisting updates. Individual
// failures are logged and counted, never aborting the run.
func runReparse(ctx context.Context, st store.Store, n normalize.Normalizer, recipes []model.Recipe, force bool) (updated, skipped, failed int) {
	if len(recipes) > 1 {
		if p, ok := n.(cachePrimer); ok {
			if err := p.Prime(ctx); err != nil {
				zap.L().Warn("prompt cache primer failed", zap.Error(err))
			}
		}
	}

	for i := range recipes {
		r := &recipes[i]
		if force {
			// Dropping the version stamp forces a full reparse.
			r.LastAIParsingVersion = nil
		}

		switch err := reparseRecipe(ctx, st, n, r); {
		case err == nil:
			updated++
		case eris.Is(err, errUpToDate):
			skipped++
		default:
			failed++
			zap.L().Error("reparse failed", zap.String("id", r.ID), zap.Error(err))
		}
	}
	return updated, skipped, failed
}

// reparseRecipe runs one reconciliation and persists the result.
func reparseRecipe(ctx context.Context, st store.Store, n normalize.Normalizer, r *model.Recipe) error {
	result, err := reconcile.Reconcile(ctx, r, n, reconcile.ParsingVersion)
	if err != nil {
		return err
	}
	if !result.Updated {
		return errUpToDate
	}

	upd := store.RecipeUpdate{
		Ingredients:          &result.Ingredients,
		LastAIParsingVersion: &result.Version,
		AIParsingStatus:      &result.Status,
	}
	if err := st.UpdateRecipe(ctx, r.ID, upd); err != nil {
		return eris.Wrap(err, "persist reconciled ingredients")
	}
	return nil
}

func init() {
	reparseCmd.Flags().StringVar(&reparseID, "id", "", "reparse a single recipe by ID")
	reparseCmd.Flags().BoolVar(&reparseAll, "all", false, "reparse every recipe needing normalization")
	reparseCmd.Flags().BoolVar(&reparseForce, "force", false, "reparse even up-to-date recipes")
	rootCmd.AddCommand(reparseCmd)
}
