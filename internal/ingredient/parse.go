// Package ingredient provides the deterministic, offline parser that turns a
// free-text ingredient line into a structured amount/unit/name triple, plus
// the duration and yield normalizers used by extraction.
package ingredient

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/plateful/recipe-cli/internal/units"
)

// Parsed is the result of parsing one ingredient line. The parser never
// fails: when no amount or unit can be identified the entire trimmed line
// becomes Name and Confidence is zero.
type Parsed struct {
	Amount     *float64
	AmountMax  *float64
	Unit       *units.Unit
	Name       string
	Optional   bool
	Confidence float64
}

// vulgarFractions maps unicode fraction runes to their ASCII expansion.
var vulgarFractions = map[rune]string{
	'½': "1/2", '⅓': "1/3", '⅔': "2/3", '¼': "1/4", '¾': "3/4",
	'⅕': "1/5", '⅖': "2/5", '⅗': "3/5", '⅘': "4/5",
	'⅙': "1/6", '⅚': "5/6", '⅐': "1/7", '⅛': "1/8", '⅜': "3/8",
	'⅝': "5/8", '⅞': "7/8", '⅑': "1/9", '⅒': "1/10",
}

var (
	numberRe   = regexp.MustCompile(`^(\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|\d*\.\d+|\d+)`)
	rangeSepRe = regexp.MustCompile(`^\s*(?:-|to\s)\s*`)
	parensRe   = regexp.MustCompile(`\([^)]*\)`)
	optionalRe = regexp.MustCompile(`(?i)[,(]?\s*optional\s*[)]?\s*$`)
)

// containerWords are tokens that name a multiplied container in notation like
// "2 (14 oz) cans chickpeas". They are consumed, never folded into the name.
var containerWords = map[string]bool{
	"can": true, "cans": true, "jar": true, "jars": true,
	"bottle": true, "bottles": true, "package": true, "packages": true,
	"pkg": true, "box": true, "boxes": true, "bag": true, "bags": true,
	"container": true, "containers": true, "stick": true, "sticks": true,
}

// leadingConnectors are dropped from the front of the parsed name.
var leadingConnectors = map[string]bool{"of": true, "fresh": true}

// ParseLine parses one free-text ingredient line. It handles integers,
// decimals, unicode fractions, mixed numbers ("1 1/2"), ranges ("1-2",
// "1 to 2"), and multiplied container notation ("2 (14 oz) cans" → 28
// WEIGHT_OUNCE). Parenthetical asides are stripped from the name only;
// callers keep the verbatim line separately.
func ParseLine(text string) Parsed {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Parsed{}
	}

	working := normalizeText(trimmed)

	var p Parsed
	if optionalRe.MatchString(working) {
		p.Optional = true
		working = strings.TrimSpace(optionalRe.ReplaceAllString(working, ""))
	}

	rest := working
	amount, amountMax, rest := parseAmount(rest)
	p.Amount = amount
	p.AmountMax = amountMax

	if amount != nil {
		if mult, u, after, ok := parseContainer(rest); ok {
			total := *amount * mult
			p.Amount = &total
			p.AmountMax = nil
			p.Unit = u
			rest = after
		}
	}
	if p.Unit == nil {
		p.Unit, rest = parseUnit(rest)
	}

	p.Name = cleanName(rest, p)
	if p.Name == "" && p.Amount == nil {
		// Nothing recognized: degrade to "everything is the name".
		return Parsed{Name: trimmed, Optional: p.Optional}
	}

	p.Confidence = confidence(working, rest, p)
	return p
}

// ParseAmount parses a bare quantity token ("2", "1 ½", "1-2") into an
// amount and optional range upper bound. Used by strategies whose markup
// already separates the amount from the rest of the line.
func ParseAmount(token string) (*float64, *float64) {
	amount, amountMax, rest := parseAmount(normalizeText(strings.TrimSpace(token)))
	if strings.TrimSpace(rest) != "" && amount == nil {
		return nil, nil
	}
	return amount, amountMax
}

// normalizeText expands unicode fractions, unifies dashes, applies NFKC
// compatibility folding, and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case vulgarFractions[r] != "":
			b.WriteByte(' ')
			b.WriteString(vulgarFractions[r])
			b.WriteByte(' ')
		case r == '–' || r == '—' || r == '−':
			b.WriteByte('-')
		case r == '⁄':
			b.WriteByte('/')
		default:
			b.WriteRune(r)
		}
	}
	folded := norm.NFKC.String(b.String())
	return strings.Join(strings.Fields(folded), " ")
}

// parseAmount reads a leading quantity and optional range upper bound.
func parseAmount(s string) (*float64, *float64, string) {
	m := numberRe.FindString(s)
	if m == "" {
		return nil, nil, s
	}
	val, ok := parseNumber(m)
	if !ok {
		return nil, nil, s
	}
	rest := s[len(m):]

	// Range: "-" or "to " followed by a second number.
	if sep := rangeSepRe.FindString(rest); sep != "" {
		afterSep := rest[len(sep):]
		if m2 := numberRe.FindString(afterSep); m2 != "" {
			if hi, ok := parseNumber(m2); ok && hi > val {
				rest = afterSep[len(m2):]
				return &val, &hi, strings.TrimSpace(rest)
			}
		}
	}
	return &val, nil, strings.TrimSpace(rest)
}

// parseNumber evaluates an integer, decimal, fraction, or mixed number token.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		whole := 0.0
		frac := s
		if fields := strings.Fields(s); len(fields) == 2 {
			w, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return 0, false
			}
			whole = w
			frac = fields[1]
		}
		parts := strings.SplitN(strings.ReplaceAll(frac, " ", ""), "/", 2)
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0, false
		}
		return whole + num/den, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseContainer recognizes "(14 oz) cans ..." after a leading count,
// returning the per-container amount, its unit, and the remainder with the
// parenthetical and the container word consumed.
func parseContainer(s string) (float64, *units.Unit, string, bool) {
	if !strings.HasPrefix(s, "(") {
		return 0, nil, s, false
	}
	close := strings.IndexByte(s, ')')
	if close < 0 {
		return 0, nil, s, false
	}
	inner := strings.TrimSpace(s[1:close])

	m := numberRe.FindString(inner)
	if m == "" {
		return 0, nil, s, false
	}
	size, ok := parseNumber(m)
	if !ok {
		return 0, nil, s, false
	}
	unitTok := strings.TrimSpace(inner[len(m):])
	u, ok := units.Resolve(unitTok)
	if !ok {
		return 0, nil, s, false
	}

	rest := strings.TrimSpace(s[close+1:])
	// Drop the container word itself ("cans", "jars") if present.
	if fields := strings.Fields(rest); len(fields) > 0 {
		w := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		if containerWords[w] {
			rest = strings.TrimSpace(rest[len(fields[0]):])
		}
	}
	return size, &u, rest, true
}

// parseUnit tries to resolve the leading one or two tokens as a unit.
func parseUnit(s string) (*units.Unit, string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, s
	}
	// Two-token units first ("fl oz", "fluid ounces").
	if len(fields) >= 2 {
		if u, ok := units.Resolve(fields[0] + " " + fields[1]); ok {
			return &u, strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, fields[0]), " "+fields[1]))
		}
	}
	if u, ok := units.Resolve(fields[0]); ok {
		return &u, strings.TrimSpace(s[len(fields[0]):])
	}
	return nil, s
}

// cleanName strips parentheticals and connectors, then singularizes the
// final word for count-style lines.
func cleanName(s string, p Parsed) string {
	s = parensRe.ReplaceAllString(s, " ")
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " ,")

	fields := strings.Fields(s)
	for len(fields) > 0 && leadingConnectors[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	name := strings.Join(fields, " ")

	if p.Amount != nil && countStyle(p.Unit) {
		name = singularizeLast(name)
	}
	return name
}

// countStyle reports whether the parsed unit counts discrete items (or no
// unit was recognized at all), which triggers name singularization.
func countStyle(u *units.Unit) bool {
	return u == nil || *u == units.Each
}

var irregularSingulars = map[string]string{
	"leaves": "leaf", "loaves": "loaf", "halves": "half", "knives": "knife",
}

// singularizeLast converts the last word of a noun phrase to singular using
// a trailing-s heuristic plus a small irregular table.
func singularizeLast(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	last := fields[len(fields)-1]
	lower := strings.ToLower(last)

	switch {
	case irregularSingulars[lower] != "":
		last = irregularSingulars[lower]
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		last = last[:len(last)-3] + "y"
	case strings.HasSuffix(lower, "oes") && len(lower) > 3:
		last = last[:len(last)-2]
	case strings.HasSuffix(lower, "shes") || strings.HasSuffix(lower, "ches"):
		last = last[:len(last)-2]
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		last = last[:len(last)-1]
	}
	fields[len(fields)-1] = last
	return strings.Join(fields, " ")
}

// confidence scores how much of the normalized line was consumed by
// recognized amount/unit tokens versus left as opaque name text. Diagnostic
// only; bounded to [0,1].
func confidence(working, nameRemainder string, p Parsed) float64 {
	if p.Amount == nil && p.Unit == nil {
		return 0
	}
	if len(working) == 0 {
		return 0
	}
	consumed := float64(len(working)-len(nameRemainder)) / float64(len(working))
	if consumed < 0 {
		consumed = 0
	}
	score := 0.4 * consumed
	if p.Amount != nil {
		score += 0.4
	}
	if p.Unit != nil {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}
