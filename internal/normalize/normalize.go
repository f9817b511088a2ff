// Package normalize turns raw ingredient lines into amount/unit/name triples
// using an external model. A single request carries every line of a recipe;
// the response must decode to a JSON array of the same length or the whole
// batch is discarded.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/units"
	"github.com/plateful/recipe-cli/pkg/anthropic"
)

// Triple is one normalized ingredient line. Nil fields mean the model could
// not determine that value; a fully nil triple leaves the line untouched.
type Triple struct {
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
	Name   *string  `json:"name"`
}

// Normalizer produces one Triple per input line, index-aligned.
type Normalizer interface {
	Normalize(ctx context.Context, lines []string) ([]Triple, error)
}

// LengthMismatchError reports a response whose element count does not match
// the request. Callers must treat the whole batch as unusable.
type LengthMismatchError struct {
	Want, Got int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("normalize: expected %d triples, got %d", e.Want, e.Got)
}

// Options configures the model-backed normalizer.
type Options struct {
	Model     string
	MaxTokens int64
}

// AnthropicNormalizer implements Normalizer against the Anthropic API.
type AnthropicNormalizer struct {
	client anthropic.Client
	system []anthropic.SystemBlock
	opts   Options
}

// NewAnthropicNormalizer builds a normalizer. The system instruction is
// constructed once and cache-flagged so consecutive recipes share the prompt
// cache.
func NewAnthropicNormalizer(client anthropic.Client, opts Options) *AnthropicNormalizer {
	if opts.Model == "" {
		opts.Model = "claude-haiku-4-5-20251001"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	return &AnthropicNormalizer{
		client: client,
		system: anthropic.BuildCachedSystemBlocks(BuildSystemInstruction()),
		opts:   opts,
	}
}

// Prime sends a minimal warm-up request so the cache-flagged system
// instruction is written to the prompt cache before a run of consecutive
// recipes.
func (n *AnthropicNormalizer) Prime(ctx context.Context) error {
	_, err := anthropic.PrimerRequest(ctx, n.client, anthropic.MessageRequest{
		Model:     n.opts.Model,
		MaxTokens: 1,
		System:    n.system,
		Messages:  []anthropic.Message{{Role: "user", Content: "ok"}},
	})
	if err != nil {
		return eris.Wrap(err, "normalize: prime prompt cache")
	}
	return nil
}

// BuildSystemInstruction renders the normalization prompt, enumerating the
// canonical unit names the model may emit.
func BuildSystemInstruction() string {
	var b strings.Builder
	b.WriteString("You normalize recipe ingredient lines into structured values.\n\n")
	b.WriteString("For each input line, produce an object with these keys:\n")
	b.WriteString("  amount: number or null\n")
	b.WriteString("  unit:   one of the canonical unit names below, or null\n")
	b.WriteString("  name:   the bare ingredient name, or null\n\n")
	b.WriteString("Canonical units:\n")
	for _, u := range units.All() {
		b.WriteString("  ")
		b.WriteString(string(u))
		b.WriteString("\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Respond with a JSON array only, no prose, no code fences.\n")
	b.WriteString("- The array must have exactly one object per input line, in order.\n")
	b.WriteString("- Never invent amounts; use null when the line has none.\n")
	b.WriteString("- name excludes amounts, units, and preparation notes.\n")
	return b.String()
}

// Normalize sends all lines in one request and decodes the index-aligned
// response.
func (n *AnthropicNormalizer) Normalize(ctx context.Context, lines []string) ([]Triple, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Normalize these ingredient lines:\n")
	for i, line := range lines {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, line)
	}

	resp, err := n.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     n.opts.Model,
		MaxTokens: n.opts.MaxTokens,
		System:    n.system,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt.String()},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "normalize: create message")
	}
	resp.Usage.LogCost(n.opts.Model, "normalize")

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	triples, err := decodeTriples(text)
	if err != nil {
		return nil, err
	}
	if len(triples) != len(lines) {
		return nil, &LengthMismatchError{Want: len(lines), Got: len(triples)}
	}

	// Reject units outside the canonical table rather than storing
	// free-form text.
	for i := range triples {
		if triples[i].Unit == nil {
			continue
		}
		if u, ok := units.Resolve(*triples[i].Unit); ok {
			s := string(u)
			triples[i].Unit = &s
		} else {
			zap.L().Debug("normalize: dropping unknown unit",
				zap.String("unit", *triples[i].Unit),
				zap.String("line", lines[i]),
			)
			triples[i].Unit = nil
		}
	}
	return triples, nil
}

// decodeTriples parses the model output, tolerating markdown code fences.
func decodeTriples(text string) ([]Triple, error) {
	cleaned := cleanJSONArray(text)
	var triples []Triple
	if err := json.Unmarshal([]byte(cleaned), &triples); err != nil {
		return nil, eris.Wrap(err, "normalize: decode response")
	}
	return triples, nil
}

// cleanJSONArray extracts a JSON array from text that may contain markdown
// code fences or other wrapping.
func cleanJSONArray(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
