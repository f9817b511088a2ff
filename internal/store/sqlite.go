package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/plateful/recipe-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS recipes (
	id                      TEXT PRIMARY KEY,
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	image_url               TEXT NOT NULL DEFAULT '',
	ingredients             TEXT NOT NULL,
	instructions            TEXT NOT NULL,
	servings                INTEGER,
	prep_time_minutes       INTEGER,
	cook_time_minutes       INTEGER,
	category                TEXT,
	cuisine                 TEXT,
	keywords                TEXT,
	source_url              TEXT NOT NULL,
	extraction_method       TEXT NOT NULL,
	last_ai_parsing_version INTEGER,
	ai_parsing_status       TEXT NOT NULL DEFAULT 'required',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_recipes_source_url ON recipes(source_url);
CREATE INDEX IF NOT EXISTS idx_recipes_ai_status ON recipes(ai_parsing_status);
CREATE INDEX IF NOT EXISTS idx_recipes_updated_at ON recipes(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteRecipeColumns = `id, title, description, image_url, ingredients, instructions,
	servings, prep_time_minutes, cook_time_minutes, category, cuisine, keywords,
	source_url, extraction_method, last_ai_parsing_version, ai_parsing_status,
	created_at, updated_at`

func (s *SQLiteStore) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	stored := *r
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.AIParsingStatus == "" {
		stored.AIParsingStatus = model.AIParsingRequired
	}

	ingredients, instructions, lists, err := marshalRecipeLists(&stored)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal recipe")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipes (`+sqliteRecipeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Title, stored.Description, stored.ImageURL,
		ingredients, instructions,
		nullableInt(stored.Servings), nullableInt(stored.PrepTimeMinutes), nullableInt(stored.CookTimeMinutes),
		lists.category, lists.cuisine, lists.keywords,
		stored.SourceURL, string(stored.ExtractionMethod),
		nullableInt(stored.LastAIParsingVersion), string(stored.AIParsingStatus),
		now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert recipe")
	}
	return &stored, nil
}

func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRecipeColumns+` FROM recipes WHERE id = ?`, id,
	)
	r, err := scanRecipe(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get recipe %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) UpdateRecipe(ctx context.Context, id string, upd RecipeUpdate) error {
	set := `updated_at = ?`
	args := []any{time.Now().UTC()}

	if upd.Title != nil {
		set += `, title = ?`
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		set += `, description = ?`
		args = append(args, *upd.Description)
	}
	if upd.Ingredients != nil {
		data, err := json.Marshal(*upd.Ingredients)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal ingredients")
		}
		set += `, ingredients = ?`
		args = append(args, string(data))
	}
	if upd.Instructions != nil {
		data, err := json.Marshal(*upd.Instructions)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal instructions")
		}
		set += `, instructions = ?`
		args = append(args, string(data))
	}
	if upd.LastAIParsingVersion != nil {
		set += `, last_ai_parsing_version = ?`
		args = append(args, *upd.LastAIParsingVersion)
	}
	if upd.AIParsingStatus != nil {
		set += `, ai_parsing_status = ?`
		args = append(args, string(*upd.AIParsingStatus))
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE recipes SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update recipe %s", id)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete recipe %s", id)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) ListRecipes(ctx context.Context, filter Filter) ([]model.Recipe, error) {
	query := `SELECT ` + sqliteRecipeColumns + ` FROM recipes WHERE 1=1`
	var args []any

	if filter.SourceURL != "" {
		query += ` AND source_url = ?`
		args = append(args, filter.SourceURL)
	}
	if filter.ExtractionMethod != "" {
		query += ` AND extraction_method = ?`
		args = append(args, string(filter.ExtractionMethod))
	}
	if filter.AIParsingStatus != "" {
		query += ` AND ai_parsing_status = ?`
		args = append(args, string(filter.AIParsingStatus))
	}
	if !filter.UpdatedSince.IsZero() {
		query += ` AND updated_at > ?`
		args = append(args, filter.UpdatedSince.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recipes")
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recipe")
		}
		recipes = append(recipes, *r)
	}
	return recipes, eris.Wrap(rows.Err(), "sqlite: list recipes iterate")
}

func (s *SQLiteStore) Subscribe(ctx context.Context, filter Filter, interval time.Duration) (<-chan model.Recipe, error) {
	return subscribe(ctx, s, filter, interval), nil
}

// helpers

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

type stringLists struct {
	category, cuisine, keywords any
}

// marshalRecipeLists serializes the JSON-backed columns. The optional string
// slices turn into NULL when absent so filters stay cheap.
func marshalRecipeLists(r *model.Recipe) (ingredients, instructions string, lists stringLists, err error) {
	ing, err := json.Marshal(r.Ingredients)
	if err != nil {
		return "", "", lists, err
	}
	ins, err := json.Marshal(r.Instructions)
	if err != nil {
		return "", "", lists, err
	}
	lists.category, err = marshalNullable(r.Category)
	if err != nil {
		return "", "", lists, err
	}
	lists.cuisine, err = marshalNullable(r.Cuisine)
	if err != nil {
		return "", "", lists, err
	}
	lists.keywords, err = marshalNullable(r.Keywords)
	if err != nil {
		return "", "", lists, err
	}
	return string(ing), string(ins), lists, nil
}

func marshalNullable(ss []string) (any, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecipe(row scannable) (*model.Recipe, error) {
	var r model.Recipe
	var ingredients, instructions string
	var category, cuisine, keywords sql.NullString
	var servings, prep, cook, aiVersion sql.NullInt64

	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.ImageURL,
		&ingredients, &instructions,
		&servings, &prep, &cook,
		&category, &cuisine, &keywords,
		&r.SourceURL, &r.ExtractionMethod,
		&aiVersion, &r.AIParsingStatus,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, eris.Wrap(err, "unmarshal ingredients")
	}
	if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
		return nil, eris.Wrap(err, "unmarshal instructions")
	}
	for _, col := range []struct {
		src sql.NullString
		dst *[]string
	}{
		{category, &r.Category},
		{cuisine, &r.Cuisine},
		{keywords, &r.Keywords},
	} {
		if col.src.Valid {
			if err := json.Unmarshal([]byte(col.src.String), col.dst); err != nil {
				return nil, eris.Wrap(err, "unmarshal string list")
			}
		}
	}
	r.Servings = intPtr(servings)
	r.PrepTimeMinutes = intPtr(prep)
	r.CookTimeMinutes = intPtr(cook)
	r.LastAIParsingVersion = intPtr(aiVersion)
	return &r, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
