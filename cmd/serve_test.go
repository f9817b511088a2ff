package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/recipe-cli/internal/extract"
	"github.com/plateful/recipe-cli/internal/fetcher"
	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/store"
)

const recipePage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Test Soup",
"recipeIngredient":["1 cup flour","2 eggs"],
"recipeInstructions":["Mix.","Bake."]}
</script>
</head><body></body></html>`

const emptyPage = `<html><head><title>Nothing here</title></head><body><p>404</p></body></html>`

// fakeFetcher serves canned HTML keyed by URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	html, ok := f.pages[rawURL]
	if !ok {
		return nil, &fetcher.FetchError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return &fetcher.Page{FinalURL: rawURL, HTML: html, StatusCode: http.StatusOK}, nil
}

// memStore is an in-memory Store for handler tests.
type memStore struct {
	recipes    map[string]model.Recipe
	nextID     int
	lastFilter store.Filter
}

func newMemStore() *memStore {
	return &memStore{recipes: map[string]model.Recipe{}}
}

func (m *memStore) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	m.nextID++
	created := *r
	created.ID = "r-" + string(rune('0'+m.nextID))
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	m.recipes[created.ID] = created
	return &created, nil
}

func (m *memStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) UpdateRecipe(ctx context.Context, id string, upd store.RecipeUpdate) error {
	if _, ok := m.recipes[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (m *memStore) DeleteRecipe(ctx context.Context, id string) error {
	if _, ok := m.recipes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.recipes, id)
	return nil
}

func (m *memStore) ListRecipes(ctx context.Context, filter store.Filter) ([]model.Recipe, error) {
	m.lastFilter = filter
	var out []model.Recipe
	for _, r := range m.recipes {
		if filter.AIParsingStatus != "" && r.AIParsingStatus != filter.AIParsingStatus {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) Subscribe(ctx context.Context, filter store.Filter, interval time.Duration) (<-chan model.Recipe, error) {
	return nil, eris.New("not implemented")
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func newTestRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	st := newMemStore()
	env := &scrapeEnv{
		Store: st,
		Fetcher: &fakeFetcher{pages: map[string]string{
			"https://example.com/soup":  recipePage,
			"https://example.com/empty": emptyPage,
		}},
		Cascade: extract.NewCascade(nil),
	}
	return newRouter(env), st
}

func TestServeHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeScrape(t *testing.T) {
	router, st := newTestRouter(t)

	body := bytes.NewBufferString(`{"url":"https://example.com/soup"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", body))

	require.Equal(t, http.StatusCreated, rec.Code)

	var got model.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Test Soup", got.Title)
	assert.Equal(t, model.MethodJSONLD, got.ExtractionMethod)
	assert.Len(t, got.Ingredients, 2)
	assert.Len(t, st.recipes, 1)
}

func TestServeScrape_InvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", bytes.NewBufferString("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeScrape_MissingURL(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeScrape_NoRecipeOnPage(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"url":"https://example.com/empty"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServeScrape_FetchFailure(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"url":"https://example.com/missing"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", body))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServeListRecipes_EmptyIsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/recipes", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestServeGetRecipe(t *testing.T) {
	router, st := newTestRouter(t)
	created, err := st.CreateRecipe(context.Background(), &model.Recipe{Title: "Stored"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/recipes/"+created.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Stored", got.Title)
}

func TestServeGetRecipe_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/recipes/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeDeleteRecipe(t *testing.T) {
	router, st := newTestRouter(t)
	created, err := st.CreateRecipe(context.Background(), &model.Recipe{Title: "Doomed"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/recipes/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/recipes/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
