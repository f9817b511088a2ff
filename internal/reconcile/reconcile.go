// Package reconcile keeps a recipe's AI-normalized ingredient fields in
// step with the current parsing version. A recipe is stale when its version
// stamp is behind or when ingredients lack AI values; reconciling runs one
// batched normalizer call and merges results all-or-nothing.
package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/normalize"
	"github.com/plateful/recipe-cli/internal/units"
)

// ParsingVersion is the current normalization contract version. Bumping it
// forces a full reparse of every recipe on its next reconciliation, because
// the prompt or unit table changed in a way that invalidates old results.
const ParsingVersion = 2

// Analysis describes which ingredients need normalization.
type Analysis struct {
	Indices    []int
	ReparseAll bool
}

// Analyze selects ingredient indices to normalize. A stale or absent version
// stamp selects everything; otherwise only ingredients with no AI values.
func Analyze(r *model.Recipe, version int) Analysis {
	if r.LastAIParsingVersion == nil || *r.LastAIParsingVersion < version {
		indices := make([]int, len(r.Ingredients))
		for i := range indices {
			indices[i] = i
		}
		return Analysis{Indices: indices, ReparseAll: true}
	}

	var indices []int
	for i := range r.Ingredients {
		if !r.Ingredients[i].HasAIValues() {
			indices = append(indices, i)
		}
	}
	return Analysis{Indices: indices}
}

// Result is the outcome of a reconciliation.
type Result struct {
	// Ingredients is the full ingredient list with AI fields merged in.
	Ingredients []model.Ingredient
	// Updated is false when nothing needed normalization; the caller skips
	// persistence entirely in that case.
	Updated bool
	// Status and Version are the values the caller should persist.
	Status  model.AIParsingStatus
	Version int
}

// Reconcile brings a recipe's ingredients up to the given version. On any
// normalizer failure the error is returned and the recipe's ingredients are
// untouched; there is never a partial merge.
func Reconcile(ctx context.Context, r *model.Recipe, n normalize.Normalizer, version int) (*Result, error) {
	analysis := Analyze(r, version)
	if len(analysis.Indices) == 0 {
		return &Result{
			Ingredients: r.Ingredients,
			Updated:     false,
			Status:      StatusFor(r.Ingredients),
			Version:     version,
		}, nil
	}

	// Empty lines are never sent; they stay unresolved.
	var lines []string
	var sent []int
	for _, idx := range analysis.Indices {
		line := lineFor(r.Ingredients[idx])
		if line == "" {
			continue
		}
		lines = append(lines, line)
		sent = append(sent, idx)
	}

	merged := make([]model.Ingredient, len(r.Ingredients))
	copy(merged, r.Ingredients)

	if len(lines) > 0 {
		triples, err := n.Normalize(ctx, lines)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: normalize")
		}
		// The normalizer guarantees index alignment; merge only the AI
		// shadow fields, leaving section/optional/original text untouched.
		for i, idx := range sent {
			applyTriple(&merged[idx], triples[i])
		}
	}

	status := StatusFor(merged)
	zap.L().Info("reconciled recipe",
		zap.String("recipe_id", r.ID),
		zap.Int("normalized", len(lines)),
		zap.Bool("reparse_all", analysis.ReparseAll),
		zap.Int("version", version),
		zap.String("status", string(status)),
	)
	return &Result{
		Ingredients: merged,
		Updated:     true,
		Status:      status,
		Version:     version,
	}, nil
}

// StatusFor reports done when every ingredient carries AI values, required
// otherwise.
func StatusFor(ingredients []model.Ingredient) model.AIParsingStatus {
	for i := range ingredients {
		if !ingredients[i].HasAIValues() {
			return model.AIParsingRequired
		}
	}
	return model.AIParsingDone
}

// lineFor is the text sent to the normalizer: the verbatim source line,
// falling back to the parsed name.
func lineFor(ing model.Ingredient) string {
	if s := strings.TrimSpace(ing.OriginalText); s != "" {
		return s
	}
	return strings.TrimSpace(ing.Name)
}

func applyTriple(ing *model.Ingredient, t normalize.Triple) {
	ing.AIAmount = t.Amount
	ing.AIName = t.Name
	ing.AIUnit = nil
	if t.Unit != nil {
		u := units.Unit(*t.Unit)
		ing.AIUnit = &u
	}
}
