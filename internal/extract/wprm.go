package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/plateful/recipe-cli/internal/ingredient"
	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/registry"
	"github.com/plateful/recipe-cli/internal/units"
)

// WPRMStrategy targets the DOM structure of the WP Recipe Maker plugin,
// which a large share of food blogs render even when their structured data
// is broken or absent. Ingredient rows carry separate amount/unit/name
// spans, so this strategy short-circuits the text parser for rows where the
// spans are populated.
type WPRMStrategy struct {
	// Overrides supplies per-host selector replacements for themes that
	// rename the stock plugin classes. Optional.
	Overrides *registry.Overrides
}

func (WPRMStrategy) Method() model.ExtractionMethod { return model.MethodWPRM }

func (w WPRMStrategy) Extract(doc *goquery.Document, sourceURL string) (*model.Recipe, error) {
	if ov := w.overrideFor(sourceURL); ov != nil {
		if r := extractWithSelectors(doc, ov); r != nil {
			return r, nil
		}
	}

	container := doc.Find(".wprm-recipe-container").First()
	if container.Length() == 0 {
		container = doc.Selection
	}

	r := &model.Recipe{
		Title:       nodeText(container.Find(".wprm-recipe-name").First()),
		Description: nodeText(container.Find(".wprm-recipe-summary").First()),
	}
	if img := container.Find(".wprm-recipe-image img").First(); img.Length() > 0 {
		r.ImageURL, _ = img.Attr("src")
	}

	// Grouped ingredients: group label becomes the section for its rows.
	groups := container.Find(".wprm-recipe-ingredient-group")
	if groups.Length() > 0 {
		groups.Each(func(_ int, g *goquery.Selection) {
			var section *string
			if label := nodeText(g.Find(".wprm-recipe-ingredient-group-name, .wprm-recipe-group-name").First()); label != "" {
				section = &label
			}
			g.Find(".wprm-recipe-ingredient").Each(func(_ int, row *goquery.Selection) {
				if ing, ok := wprmIngredient(row); ok {
					ing.Section = section
					r.Ingredients = append(r.Ingredients, ing)
				}
			})
		})
	} else {
		container.Find(".wprm-recipe-ingredient").Each(func(_ int, row *goquery.Selection) {
			if ing, ok := wprmIngredient(row); ok {
				r.Ingredients = append(r.Ingredients, ing)
			}
		})
	}

	container.Find(".wprm-recipe-instruction").Each(func(_ int, row *goquery.Selection) {
		text := nodeText(row.Find(".wprm-recipe-instruction-text").First())
		if text == "" {
			text = nodeText(row)
		}
		if text != "" {
			r.Instructions = append(r.Instructions, text)
		}
	})

	if len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
		return nil, nil
	}

	r.Servings = ingredient.ParseYieldCount(nodeText(container.Find(".wprm-recipe-servings").First()))
	r.PrepTimeMinutes = ingredient.ParseYieldCount(nodeText(container.Find(".wprm-recipe-prep_time").First()))
	r.CookTimeMinutes = ingredient.ParseYieldCount(nodeText(container.Find(".wprm-recipe-cook_time").First()))

	return r, nil
}

func (w WPRMStrategy) overrideFor(sourceURL string) *registry.SiteOverride {
	if w.Overrides == nil {
		return nil
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}
	return w.Overrides.ForHost(u.Hostname())
}

// wprmIngredient builds an ingredient from one plugin row. Rows with
// populated amount/unit/name spans skip the heuristic text parser; the
// verbatim row text is kept as originalText either way.
func wprmIngredient(row *goquery.Selection) (model.Ingredient, bool) {
	original := nodeText(row)
	if original == "" {
		return model.Ingredient{}, false
	}
	ing := model.Ingredient{OriginalText: original}

	name := nodeText(row.Find(".wprm-recipe-ingredient-name").First())
	if name == "" {
		return ing, true // no span markup: cascade runs the text parser
	}
	ing.Name = name
	if amt := nodeText(row.Find(".wprm-recipe-ingredient-amount").First()); amt != "" {
		ing.Amount, ing.AmountMax = ingredient.ParseAmount(amt)
	}
	if ut := nodeText(row.Find(".wprm-recipe-ingredient-unit").First()); ut != "" {
		if u, ok := units.Resolve(ut); ok {
			ing.Unit = &u
		}
	}
	conf := 1.0
	ing.ParseConfidence = &conf
	return ing, true
}

// extractWithSelectors runs a bare selector-driven extraction for hosts with
// registry overrides. Rows go through the text parser downstream.
func extractWithSelectors(doc *goquery.Document, ov *registry.SiteOverride) *model.Recipe {
	if ov.IngredientSelector == "" || ov.InstructionSelector == "" {
		return nil
	}
	r := &model.Recipe{}
	if ov.TitleSelector != "" {
		r.Title = nodeText(doc.Find(ov.TitleSelector).First())
	}
	doc.Find(ov.IngredientSelector).Each(func(_ int, s *goquery.Selection) {
		if text := nodeText(s); text != "" {
			r.Ingredients = append(r.Ingredients, model.Ingredient{OriginalText: text})
		}
	})
	doc.Find(ov.InstructionSelector).Each(func(_ int, s *goquery.Selection) {
		if text := nodeText(s); text != "" {
			r.Instructions = append(r.Instructions, text)
		}
	})
	if len(r.Ingredients) == 0 || len(r.Instructions) == 0 {
		return nil
	}
	return r
}
