// Package model defines the recipe data model shared across extraction,
// normalization, and persistence.
package model

import (
	"time"

	"github.com/plateful/recipe-cli/internal/units"
)

// ExtractionMethod identifies which strategy produced the winning draft.
// Fixed at creation, used for diagnostics only.
type ExtractionMethod string

const (
	MethodJSONLD         ExtractionMethod = "JSON_LD"
	MethodWPRM           ExtractionMethod = "WPRM"
	MethodDataAttributes ExtractionMethod = "DATA_ATTRIBUTES"
	MethodHTML           ExtractionMethod = "HTML"
)

// AIParsingStatus tracks whether a recipe's ingredients carry up-to-date
// AI-normalized values.
type AIParsingStatus string

const (
	AIParsingDone     AIParsingStatus = "done"
	AIParsingRequired AIParsingStatus = "required"
)

// Ingredient is one line item of a recipe. OriginalText is the verbatim
// source line and is never rewritten after extraction. The amount/unit/name
// triple comes from the heuristic parser; the ai* shadow fields are only set
// by a successful normalization pass.
type Ingredient struct {
	OriginalText string      `json:"original_text"`
	Amount       *float64    `json:"amount,omitempty"`
	AmountMax    *float64    `json:"amount_max,omitempty"`
	Unit         *units.Unit `json:"unit,omitempty"`
	Name         string      `json:"name"`

	Section         *string  `json:"section,omitempty"`
	Optional        bool     `json:"optional,omitempty"`
	ParseConfidence *float64 `json:"parse_confidence,omitempty"`

	AIAmount *float64    `json:"ai_amount,omitempty"`
	AIUnit   *units.Unit `json:"ai_unit,omitempty"`
	AIName   *string     `json:"ai_name,omitempty"`
}

// EffectiveValues is the amount/unit/name triple a consumer should display.
type EffectiveValues struct {
	Amount *float64
	Unit   *units.Unit
	Name   string
}

// HasAIValues reports whether any of the AI shadow fields is set.
func (i Ingredient) HasAIValues() bool {
	return i.AIAmount != nil || i.AIUnit != nil || i.AIName != nil
}

// Effective selects the triple all-or-nothing: if any AI field is set, the AI
// triple is used and missing AI fields stay nil rather than falling back to
// the heuristic values. The two sources are never combined field-by-field.
func (i Ingredient) Effective() EffectiveValues {
	if i.HasAIValues() {
		name := ""
		if i.AIName != nil {
			name = *i.AIName
		}
		return EffectiveValues{Amount: i.AIAmount, Unit: i.AIUnit, Name: name}
	}
	return EffectiveValues{Amount: i.Amount, Unit: i.Unit, Name: i.Name}
}

// Recipe is a structured recipe record. During extraction it is a draft; once
// persisted it gains an ID and timestamps from the store.
type Recipe struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`

	Servings        *int `json:"servings,omitempty"`
	PrepTimeMinutes *int `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes *int `json:"cook_time_minutes,omitempty"`

	Category []string `json:"category,omitempty"`
	Cuisine  []string `json:"cuisine,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	SourceURL        string           `json:"source_url"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`

	LastAIParsingVersion *int            `json:"last_ai_parsing_version,omitempty"`
	AIParsingStatus      AIParsingStatus `json:"ai_parsing_status,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Valid reports whether a draft meets the minimum bar for persistence:
// non-empty title, at least one ingredient, at least one instruction.
func (r *Recipe) Valid() bool {
	return r != nil && r.Title != "" && len(r.Ingredients) >= 1 && len(r.Instructions) >= 1
}
