// Package store persists scraped recipes. Two backends share one schema
// shape: SQLite for the single-user CLI default and Postgres for shared
// deployments. Ingredient and instruction lists live in JSON columns since
// they are always read and written as a unit.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plateful/recipe-cli/internal/model"
)

// ErrNotFound is returned when a recipe ID does not exist.
var ErrNotFound = eris.New("store: recipe not found")

// Filter specifies criteria for listing recipes.
type Filter struct {
	SourceURL        string                 `json:"source_url,omitempty"`
	ExtractionMethod model.ExtractionMethod `json:"extraction_method,omitempty"`
	AIParsingStatus  model.AIParsingStatus  `json:"ai_parsing_status,omitempty"`
	UpdatedSince     time.Time              `json:"updated_since,omitempty"`
	// Limit caps the result set. Zero means the default of 100; a negative
	// value disables the cap.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// RecipeUpdate is a partial update. Nil fields are left untouched, so the
// reconciler can swap ingredients and version stamps without re-writing the
// rest of the row.
type RecipeUpdate struct {
	Title                *string
	Description          *string
	Ingredients          *[]model.Ingredient
	Instructions         *[]string
	LastAIParsingVersion *int
	AIParsingStatus      *model.AIParsingStatus
}

// Store defines the persistence interface for recipes.
type Store interface {
	CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, upd RecipeUpdate) error
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, filter Filter) ([]model.Recipe, error)

	// Subscribe emits recipes created or updated after the subscription
	// starts, polling at the given interval. The channel closes when ctx is
	// cancelled.
	Subscribe(ctx context.Context, filter Filter, interval time.Duration) (<-chan model.Recipe, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// subscribe implements the polling change feed shared by both backends. It
// keeps a watermark of the newest updated_at seen and re-lists past it.
func subscribe(ctx context.Context, s Store, filter Filter, interval time.Duration) <-chan model.Recipe {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ch := make(chan model.Recipe)
	watermark := time.Now().UTC()

	go func() {
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}

			f := filter
			f.UpdatedSince = watermark
			f.Limit = -1
			f.Offset = 0
			recipes, err := s.ListRecipes(ctx, f)
			if err != nil {
				continue
			}
			// Deliver oldest change first so the watermark never advances
			// past a row that has not been sent yet.
			sort.Slice(recipes, func(i, j int) bool {
				return recipes[i].UpdatedAt.Before(recipes[j].UpdatedAt)
			})
			for i := range recipes {
				r := recipes[i]
				select {
				case ch <- r:
				case <-ctx.Done():
					return
				}
				if r.UpdatedAt.After(watermark) {
					watermark = r.UpdatedAt
				}
			}
		}
	}()
	return ch
}
