package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/plateful/recipe-cli/internal/ingredient"
	"github.com/plateful/recipe-cli/internal/model"
)

// MicrodataStrategy reads generic schema.org microdata conventions
// (itemprop attributes) for pages that hand-roll their markup without a
// JSON structured-data island.
type MicrodataStrategy struct{}

func (MicrodataStrategy) Method() model.ExtractionMethod { return model.MethodDataAttributes }

func (MicrodataStrategy) Extract(doc *goquery.Document, sourceURL string) (*model.Recipe, error) {
	scope := doc.Find(`[itemtype*='schema.org/Recipe']`).First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	r := &model.Recipe{
		Title:       itempropValue(scope, "name"),
		Description: itempropValue(scope, "description"),
	}

	lines := scope.Find(`[itemprop='recipeIngredient']`)
	if lines.Length() == 0 {
		lines = scope.Find(`[itemprop='ingredients']`) // legacy vocabulary
	}
	lines.Each(func(_ int, s *goquery.Selection) {
		if text := nodeText(s); text != "" {
			r.Ingredients = append(r.Ingredients, model.Ingredient{OriginalText: text})
		}
	})

	scope.Find(`[itemprop='recipeInstructions']`).Each(func(_ int, s *goquery.Selection) {
		// An instructions container may wrap a list of steps; a bare element
		// is a single step.
		items := s.Find("li")
		if items.Length() > 0 {
			items.Each(func(_ int, li *goquery.Selection) {
				if text := nodeText(li); text != "" {
					r.Instructions = append(r.Instructions, text)
				}
			})
			return
		}
		if text := nodeText(s); text != "" {
			r.Instructions = append(r.Instructions, text)
		}
	})

	if len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
		return nil, nil
	}

	if img := scope.Find(`[itemprop='image']`).First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok {
			r.ImageURL = src
		} else if content, ok := img.Attr("content"); ok {
			r.ImageURL = content
		}
	}

	r.Servings = ingredient.ParseYieldCount(itempropValue(scope, "recipeYield"))
	r.PrepTimeMinutes = ingredient.ParseISODurationMinutes(itempropValue(scope, "prepTime"))
	r.CookTimeMinutes = ingredient.ParseISODurationMinutes(itempropValue(scope, "cookTime"))

	return r, nil
}

// itempropValue reads an itemprop's value: the content or datetime
// attribute when present (meta/time tags), otherwise the element text.
func itempropValue(scope *goquery.Selection, prop string) string {
	el := scope.Find(`[itemprop='` + prop + `']`).First()
	if el.Length() == 0 {
		return ""
	}
	if content, ok := el.Attr("content"); ok && content != "" {
		return content
	}
	if dt, ok := el.Attr("datetime"); ok && dt != "" {
		return dt
	}
	return nodeText(el)
}
