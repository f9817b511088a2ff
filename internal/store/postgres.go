package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/plateful/recipe-cli/internal/db"
	"github.com/plateful/recipe-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const pgRecipeColumns = `id, title, description, image_url, ingredients, instructions,
	servings, prep_time_minutes, cook_time_minutes, category, cuisine, keywords,
	source_url, extraction_method, last_ai_parsing_version, ai_parsing_status,
	created_at, updated_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_recipe":    `SELECT ` + pgRecipeColumns + ` FROM recipes WHERE id = $1`,
	"delete_recipe": `DELETE FROM recipes WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests to inject a mock.
func NewPostgresWithPool(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS recipes (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	image_url               TEXT NOT NULL DEFAULT '',
	ingredients             JSONB NOT NULL,
	instructions            JSONB NOT NULL,
	servings                INTEGER,
	prep_time_minutes       INTEGER,
	cook_time_minutes       INTEGER,
	category                JSONB,
	cuisine                 JSONB,
	keywords                JSONB,
	source_url              TEXT NOT NULL,
	extraction_method       TEXT NOT NULL,
	last_ai_parsing_version INTEGER,
	ai_parsing_status       TEXT NOT NULL DEFAULT 'required',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_recipes_source_url ON recipes(source_url);
CREATE INDEX IF NOT EXISTS idx_recipes_ai_status ON recipes(ai_parsing_status);
CREATE INDEX IF NOT EXISTS idx_recipes_updated_at ON recipes(updated_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
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
		return nil, eris.Wrap(err, "postgres: marshal recipe")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO recipes (`+pgRecipeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		stored.ID, stored.Title, stored.Description, stored.ImageURL,
		ingredients, instructions,
		nullableInt(stored.Servings), nullableInt(stored.PrepTimeMinutes), nullableInt(stored.CookTimeMinutes),
		lists.category, lists.cuisine, lists.keywords,
		stored.SourceURL, string(stored.ExtractionMethod),
		nullableInt(stored.LastAIParsingVersion), string(stored.AIParsingStatus),
		now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert recipe")
	}
	return &stored, nil
}

func (s *PostgresStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgRecipeColumns+` FROM recipes WHERE id = $1`, id,
	)
	r, err := scanPgRecipe(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get recipe %s", id)
	}
	return r, nil
}

func (s *PostgresStore) UpdateRecipe(ctx context.Context, id string, upd RecipeUpdate) error {
	set := `updated_at = $1`
	args := []any{time.Now().UTC()}
	next := func() string {
		return "$" + strconv.Itoa(len(args)+1)
	}

	if upd.Title != nil {
		set += `, title = ` + next()
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		set += `, description = ` + next()
		args = append(args, *upd.Description)
	}
	if upd.Ingredients != nil {
		data, err := json.Marshal(*upd.Ingredients)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal ingredients")
		}
		set += `, ingredients = ` + next()
		args = append(args, string(data))
	}
	if upd.Instructions != nil {
		data, err := json.Marshal(*upd.Instructions)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal instructions")
		}
		set += `, instructions = ` + next()
		args = append(args, string(data))
	}
	if upd.LastAIParsingVersion != nil {
		set += `, last_ai_parsing_version = ` + next()
		args = append(args, *upd.LastAIParsingVersion)
	}
	if upd.AIParsingStatus != nil {
		set += `, ai_parsing_status = ` + next()
		args = append(args, string(*upd.AIParsingStatus))
	}

	where := next()
	args = append(args, id)
	tag, err := s.pool.Exec(ctx, `UPDATE recipes SET `+set+` WHERE id = `+where, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update recipe %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteRecipe(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete recipe %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListRecipes(ctx context.Context, filter Filter) ([]model.Recipe, error) {
	query := `SELECT ` + pgRecipeColumns + ` FROM recipes WHERE 1=1`
	var args []any
	next := func() string {
		return "$" + strconv.Itoa(len(args)+1)
	}

	if filter.SourceURL != "" {
		query += ` AND source_url = ` + next()
		args = append(args, filter.SourceURL)
	}
	if filter.ExtractionMethod != "" {
		query += ` AND extraction_method = ` + next()
		args = append(args, string(filter.ExtractionMethod))
	}
	if filter.AIParsingStatus != "" {
		query += ` AND ai_parsing_status = ` + next()
		args = append(args, string(filter.AIParsingStatus))
	}
	if !filter.UpdatedSince.IsZero() {
		query += ` AND updated_at > ` + next()
		args = append(args, filter.UpdatedSince.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	if limit > 0 {
		query += ` LIMIT ` + next()
		args = append(args, limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ` + next()
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recipes")
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanPgRecipe(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan recipe")
		}
		recipes = append(recipes, *r)
	}
	return recipes, eris.Wrap(rows.Err(), "postgres: list recipes iterate")
}

func (s *PostgresStore) Subscribe(ctx context.Context, filter Filter, interval time.Duration) (<-chan model.Recipe, error) {
	return subscribe(ctx, s, filter, interval), nil
}

// scanPgRecipe scans a recipe row from pgx. JSONB columns arrive as strings
// through the text protocol pgxmock uses, so they are decoded by hand rather
// than relying on pgx's native JSONB mapping.
func scanPgRecipe(row pgx.Row) (*model.Recipe, error) {
	var r model.Recipe
	var ingredients, instructions string
	var category, cuisine, keywords *string
	var servings, prep, cook, aiVersion *int

	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.ImageURL,
		&ingredients, &instructions,
		&servings, &prep, &cook,
		&category, &cuisine, &keywords,
		&r.SourceURL, &r.ExtractionMethod,
		&aiVersion, &r.AIParsingStatus,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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
		src *string
		dst *[]string
	}{
		{category, &r.Category},
		{cuisine, &r.Cuisine},
		{keywords, &r.Keywords},
	} {
		if col.src != nil {
			if err := json.Unmarshal([]byte(*col.src), col.dst); err != nil {
				return nil, eris.Wrap(err, "unmarshal string list")
			}
		}
	}
	r.Servings = servings
	r.PrepTimeMinutes = prep
	r.CookTimeMinutes = cook
	r.LastAIParsingVersion = aiVersion
	return &r, nil
}
