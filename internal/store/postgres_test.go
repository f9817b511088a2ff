package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/recipe-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var pgColumnNames = []string{
	"id", "title", "description", "image_url", "ingredients", "instructions",
	"servings", "prep_time_minutes", "cook_time_minutes", "category", "cuisine", "keywords",
	"source_url", "extraction_method", "last_ai_parsing_version", "ai_parsing_status",
	"created_at", "updated_at",
}

func pgRecipeRow(id string) *pgxmock.Rows {
	now := time.Now().UTC()
	category := `["Dinner"]`
	return pgxmock.NewRows(pgColumnNames).AddRow(
		id, "Weeknight Chili", "A fast chili.", "",
		`[{"original_text":"2 cups kidney beans","name":"kidney beans"}]`,
		`["Brown the beef."]`,
		nil, nil, nil, &category, nil, nil,
		"https://example.com/chili", "JSON_LD", nil, "required",
		now, now,
	)
}

func TestPostgresStore_GetRecipe(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM recipes WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(pgRecipeRow("r-1"))

	got, err := s.GetRecipe(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "Weeknight Chili", got.Title)
	assert.Equal(t, model.MethodJSONLD, got.ExtractionMethod)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "kidney beans", got.Ingredients[0].Name)
	assert.Equal(t, []string{"Dinner"}, got.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecipe_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM recipes WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecipe(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRecipe(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	insertArgs := make([]any, 18)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO recipes`).
		WithArgs(insertArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := s.CreateRecipe(context.Background(), testRecipe())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.AIParsingRequired, created.AIParsingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRecipe(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	version := 3
	done := model.AIParsingDone
	mock.ExpectExec(`UPDATE recipes SET updated_at = \$1, last_ai_parsing_version = \$2, ai_parsing_status = \$3 WHERE id = \$4`).
		WithArgs(pgxmock.AnyArg(), 3, "done", "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRecipe(context.Background(), "r-1", RecipeUpdate{
		LastAIParsingVersion: &version,
		AIParsingStatus:      &done,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRecipe_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	title := "x"
	mock.ExpectExec(`UPDATE recipes SET`).
		WithArgs(pgxmock.AnyArg(), "x", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRecipe(context.Background(), "missing", RecipeUpdate{Title: &title})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRecipe(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM recipes WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteRecipe(context.Background(), "r-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecipes(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM recipes WHERE 1=1 AND ai_parsing_status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("required", 100).
		WillReturnRows(pgRecipeRow("r-1"))

	got, err := s.ListRecipes(context.Background(), Filter{AIParsingStatus: model.AIParsingRequired})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
