package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/ingredient"
	"github.com/plateful/recipe-cli/internal/model"
)

// JSONLDStrategy reads schema.org Recipe objects from structured-data script
// blocks. It tolerates multiple blocks, @graph wrappers, and array-typed
// @type fields. A block that fails to parse is logged and skipped; the
// cascade continues with the remaining blocks.
type JSONLDStrategy struct{}

func (JSONLDStrategy) Method() model.ExtractionMethod { return model.MethodJSONLD }

func (JSONLDStrategy) Extract(doc *goquery.Document, sourceURL string) (*model.Recipe, error) {
	var recipe *model.Recipe

	doc.Find(`script[type='application/ld+json']`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			zap.L().Debug("extract: malformed structured-data block, skipping",
				zap.String("url", sourceURL),
				zap.Error(err),
			)
			return true
		}
		node := findRecipeNode(payload)
		if node == nil {
			return true
		}
		draft := recipeFromNode(node)
		if draft == nil {
			return true
		}
		// Some pages carry a stub Recipe block before the real one, so an
		// incomplete draft only stops the scan if nothing better follows.
		if recipe == nil || draft.Valid() {
			recipe = draft
		}
		return !draft.Valid()
	})

	return recipe, nil
}

// findRecipeNode walks an untyped JSON tree looking for an object whose
// @type is (or includes) "Recipe". Handles top-level arrays and @graph.
func findRecipeNode(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if hasRecipeType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				if node := findRecipeNode(item); node != nil {
					return node
				}
			}
		}
	case []any:
		for _, item := range t {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	}
	return nil
}

func hasRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

// recipeFromNode maps a schema.org Recipe object onto a draft. Every field
// access is shape-guarded; unexpected shapes degrade to empty values rather
// than failing the block.
func recipeFromNode(node map[string]any) *model.Recipe {
	r := &model.Recipe{
		Title:       asString(node["name"]),
		Description: asString(node["description"]),
		ImageURL:    imageURL(node["image"]),
		Category:    asStringSlice(node["recipeCategory"]),
		Cuisine:     asStringSlice(node["recipeCuisine"]),
		Keywords:    keywordList(node["keywords"]),
	}

	lines := asStringSlice(node["recipeIngredient"])
	if len(lines) == 0 {
		lines = asStringSlice(node["ingredients"]) // legacy schema.org key
	}
	for _, line := range lines {
		line = collapseSpace(line)
		if line == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, model.Ingredient{OriginalText: line})
	}

	r.Instructions = flattenInstructions(node["recipeInstructions"])

	r.Servings = yieldCount(node["recipeYield"])
	r.PrepTimeMinutes = ingredient.ParseISODurationMinutes(asString(node["prepTime"]))
	r.CookTimeMinutes = ingredient.ParseISODurationMinutes(asString(node["cookTime"]))

	return r
}

// flattenInstructions handles the three shapes recipeInstructions appears
// in: a single string, an array of strings, or an array of HowToStep /
// HowToSection objects. Section headers are dropped; step text is collected
// in document order.
func flattenInstructions(v any) []string {
	var steps []string
	appendStep := func(s string) {
		if s = collapseSpace(s); s != "" {
			steps = append(steps, s)
		}
	}

	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			appendStep(t)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			if items, ok := t["itemListElement"]; ok {
				walk(items)
				return
			}
			appendStep(asString(t["text"]))
		}
	}
	walk(v)
	return steps
}

// --- shape guards ---

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// keywordList splits a comma-separated keyword string, or accepts an array.
func keywordList(v any) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, k := range strings.Split(s, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	return asStringSlice(v)
}

// imageURL accepts a bare URL, an array of URLs, or an ImageObject.
func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return imageURL(t[0])
		}
	case map[string]any:
		return asString(t["url"])
	}
	return ""
}

// yieldCount accepts a number, a string, or an array of either.
func yieldCount(v any) *int {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			n := int(t)
			return &n
		}
	case string:
		return ingredient.ParseYieldCount(t)
	case []any:
		for _, item := range t {
			if n := yieldCount(item); n != nil {
				return n
			}
		}
	}
	return nil
}
