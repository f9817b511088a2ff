package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/recipe-cli/internal/registry"
	"github.com/plateful/recipe-cli/internal/units"
)

const wprmPage = `<html><body>
<div class="wprm-recipe-container">
  <h2 class="wprm-recipe-name">Garlic Butter Pasta</h2>
  <div class="wprm-recipe-summary">Pantry pasta in 20 minutes.</div>
  <div class="wprm-recipe-image"><img src="https://example.com/pasta.jpg"></div>
  <span class="wprm-recipe-servings">4</span>
  <span class="wprm-recipe-prep_time">5</span>
  <span class="wprm-recipe-cook_time">15</span>
  <div class="wprm-recipe-ingredient-group">
    <h4 class="wprm-recipe-ingredient-group-name">Pasta</h4>
    <ul>
      <li class="wprm-recipe-ingredient">
        <span class="wprm-recipe-ingredient-amount">8</span>
        <span class="wprm-recipe-ingredient-unit">oz</span>
        <span class="wprm-recipe-ingredient-name">spaghetti</span>
      </li>
    </ul>
  </div>
  <div class="wprm-recipe-ingredient-group">
    <h4 class="wprm-recipe-ingredient-group-name">Sauce</h4>
    <ul>
      <li class="wprm-recipe-ingredient">
        <span class="wprm-recipe-ingredient-amount">3</span>
        <span class="wprm-recipe-ingredient-unit">cloves</span>
        <span class="wprm-recipe-ingredient-name">garlic</span>
      </li>
      <li class="wprm-recipe-ingredient">2 tbsp butter</li>
    </ul>
  </div>
  <ul>
    <li class="wprm-recipe-instruction"><div class="wprm-recipe-instruction-text">Boil the spaghetti.</div></li>
    <li class="wprm-recipe-instruction"><div class="wprm-recipe-instruction-text">Toss with garlic butter.</div></li>
  </ul>
</div>
</body></html>`

func TestWPRM_GroupedIngredients(t *testing.T) {
	r, err := WPRMStrategy{}.Extract(docFromHTML(t, wprmPage), "https://blog.example.com/pasta")
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, "Garlic Butter Pasta", r.Title)
	assert.Equal(t, "Pantry pasta in 20 minutes.", r.Description)
	assert.Equal(t, "https://example.com/pasta.jpg", r.ImageURL)
	require.Len(t, r.Ingredients, 3)

	first := r.Ingredients[0]
	require.NotNil(t, first.Section)
	assert.Equal(t, "Pasta", *first.Section)
	assert.Equal(t, "spaghetti", first.Name)
	require.NotNil(t, first.Amount)
	assert.Equal(t, 8.0, *first.Amount)
	require.NotNil(t, first.Unit)
	assert.Equal(t, units.WeightOunce, *first.Unit)

	second := r.Ingredients[1]
	require.NotNil(t, second.Section)
	assert.Equal(t, "Sauce", *second.Section)
	require.NotNil(t, second.Unit)
	assert.Equal(t, units.Clove, *second.Unit)

	// Row without span markup: name left empty for the cascade's parser.
	third := r.Ingredients[2]
	assert.Equal(t, "2 tbsp butter", third.OriginalText)
	assert.Equal(t, "", third.Name)

	assert.Equal(t, []string{"Boil the spaghetti.", "Toss with garlic butter."}, r.Instructions)
	require.NotNil(t, r.Servings)
	assert.Equal(t, 4, *r.Servings)
	require.NotNil(t, r.PrepTimeMinutes)
	assert.Equal(t, 5, *r.PrepTimeMinutes)
	require.NotNil(t, r.CookTimeMinutes)
	assert.Equal(t, 15, *r.CookTimeMinutes)
}

func TestWPRM_NoSignal(t *testing.T) {
	r, err := WPRMStrategy{}.Extract(docFromHTML(t, "<html><body><p>nothing</p></body></html>"), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestWPRM_SiteOverride(t *testing.T) {
	html := `<html><body>
	<h1 class="post-title">Custom Theme Soup</h1>
	<div class="recipe-ing">1 onion</div>
	<div class="recipe-ing">2 cups stock</div>
	<div class="recipe-step">Simmer everything.</div>
	</body></html>`

	ov := &registry.Overrides{Sites: []registry.SiteOverride{{
		Host:                "custom.example.com",
		TitleSelector:       "h1.post-title",
		IngredientSelector:  "div.recipe-ing",
		InstructionSelector: "div.recipe-step",
	}}}

	r, err := WPRMStrategy{Overrides: ov}.Extract(docFromHTML(t, html), "https://custom.example.com/soup")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Custom Theme Soup", r.Title)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "1 onion", r.Ingredients[0].OriginalText)
	assert.Equal(t, []string{"Simmer everything."}, r.Instructions)
}

func TestWPRM_OverrideIgnoredForOtherHosts(t *testing.T) {
	ov := &registry.Overrides{Sites: []registry.SiteOverride{{
		Host:                "custom.example.com",
		IngredientSelector:  "div.recipe-ing",
		InstructionSelector: "div.recipe-step",
	}}}
	r, err := WPRMStrategy{Overrides: ov}.Extract(docFromHTML(t, `<div class="recipe-ing">1 onion</div><div class="recipe-step">Cook.</div>`), "https://other.example.org/x")
	require.NoError(t, err)
	assert.Nil(t, r)
}
