package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/ingredient"
	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/registry"
)

// Cascade tries extraction strategies in fixed priority order and keeps the
// first draft that passes the recipe validity bar. No scoring or blending
// across strategies.
type Cascade struct {
	strategies []Strategy
}

// NewCascade builds the standard cascade: JSON_LD, WPRM, DATA_ATTRIBUTES,
// HTML. Site selector overrides are optional and only affect the plugin
// markup strategy.
func NewCascade(overrides *registry.Overrides) *Cascade {
	return &Cascade{
		strategies: []Strategy{
			JSONLDStrategy{},
			WPRMStrategy{Overrides: overrides},
			MicrodataStrategy{},
			HTMLStrategy{},
		},
	}
}

// Scrape extracts a recipe from raw HTML. The winning strategy's identifier
// is stamped into ExtractionMethod, and every ingredient line that the
// strategy did not already split is run through the heuristic text parser.
// When no strategy yields a valid draft it fails with ExtractionFailedError.
func (c *Cascade) Scrape(html, sourceURL string) (*model.Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse document")
	}

	for _, s := range c.strategies {
		draft, err := s.Extract(doc, sourceURL)
		if err != nil {
			zap.L().Debug("extract: strategy failed, trying next",
				zap.String("strategy", string(s.Method())),
				zap.String("url", sourceURL),
				zap.Error(err),
			)
			continue
		}
		if !draft.Valid() {
			continue
		}

		draft.SourceURL = sourceURL
		draft.ExtractionMethod = s.Method()
		parseIngredients(draft)

		zap.L().Info("extract: recipe extracted",
			zap.String("url", sourceURL),
			zap.String("method", string(s.Method())),
			zap.String("title", draft.Title),
			zap.Int("ingredients", len(draft.Ingredients)),
			zap.Int("instructions", len(draft.Instructions)),
		)
		return draft, nil
	}

	return nil, &ExtractionFailedError{SourceURL: sourceURL}
}

// parseIngredients applies the heuristic parser to every ingredient the
// strategy left unsplit (empty Name). originalText is preserved verbatim in
// all cases.
func parseIngredients(r *model.Recipe) {
	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if ing.Name != "" {
			continue
		}
		p := ingredient.ParseLine(ing.OriginalText)
		ing.Amount = p.Amount
		ing.AmountMax = p.AmountMax
		ing.Unit = p.Unit
		ing.Name = p.Name
		ing.Optional = ing.Optional || p.Optional
		conf := p.Confidence
		ing.ParseConfidence = &conf
	}
}
