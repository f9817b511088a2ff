// Package units defines the closed set of measurement units the scraper and
// normalizer are allowed to emit, plus alias resolution from free-text tokens.
package units

import "strings"

// Unit is one member of the canonical measurement-unit enumeration.
type Unit string

const (
	Teaspoon   Unit = "TEASPOON"
	Tablespoon Unit = "TABLESPOON"
	Cup        Unit = "CUP"
	FluidOunce Unit = "FLUID_OUNCE"
	Pint       Unit = "PINT"
	Quart      Unit = "QUART"
	Gallon     Unit = "GALLON"
	Milliliter Unit = "MILLILITER"
	Liter      Unit = "LITER"

	WeightOunce Unit = "WEIGHT_OUNCE"
	Pound       Unit = "POUND"
	Gram        Unit = "GRAM"
	Kilogram    Unit = "KILOGRAM"

	Pinch   Unit = "PINCH"
	Dash    Unit = "DASH"
	Clove   Unit = "CLOVE"
	Stick   Unit = "STICK"
	Slice   Unit = "SLICE"
	Bunch   Unit = "BUNCH"
	Sprig   Unit = "SPRIG"
	Can     Unit = "CAN"
	Package Unit = "PACKAGE"
	Each    Unit = "EACH"
)

// all lists every canonical unit in a stable order (volume, weight, count).
var all = []Unit{
	Teaspoon, Tablespoon, Cup, FluidOunce, Pint, Quart, Gallon, Milliliter, Liter,
	WeightOunce, Pound, Gram, Kilogram,
	Pinch, Dash, Clove, Stick, Slice, Bunch, Sprig, Can, Package, Each,
}

// All returns every canonical unit in a stable order. The returned slice is a
// copy; callers may mutate it freely.
func All() []Unit {
	out := make([]Unit, len(all))
	copy(out, all)
	return out
}

// Valid reports whether u is a member of the canonical enumeration.
func Valid(u Unit) bool {
	_, ok := canonicalSet[u]
	return ok
}

var canonicalSet = func() map[Unit]struct{} {
	m := make(map[Unit]struct{}, len(all))
	for _, u := range all {
		m[u] = struct{}{}
	}
	return m
}()

// aliases maps normalized tokens to canonical units. Keys must be lowercase
// with trailing periods already stripped; Resolve handles that normalization.
// Plural forms are listed explicitly rather than derived, so that the table
// stays exhaustively testable.
var aliases = map[string]Unit{
	"tsp": Teaspoon, "tsps": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon, "t": Teaspoon,
	"tbsp": Tablespoon, "tbsps": Tablespoon, "tbs": Tablespoon, "tbl": Tablespoon,
	"tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"c": Cup, "cup": Cup, "cups": Cup,
	"fl oz": FluidOunce, "fl. oz": FluidOunce, "fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
	"floz": FluidOunce,
	"pt": Pint, "pint": Pint, "pints": Pint,
	"qt": Quart, "qts": Quart, "quart": Quart, "quarts": Quart,
	"gal": Gallon, "gallon": Gallon, "gallons": Gallon,
	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter,
	"millilitre": Milliliter, "millilitres": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,

	"oz": WeightOunce, "ozs": WeightOunce, "ounce": WeightOunce, "ounces": WeightOunce,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,
	"g": Gram, "gr": Gram, "gram": Gram, "grams": Gram,
	"kg": Kilogram, "kgs": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,

	"pinch": Pinch, "pinches": Pinch,
	"dash": Dash, "dashes": Dash,
	"clove": Clove, "cloves": Clove,
	"stick": Stick, "sticks": Stick,
	"slice": Slice, "slices": Slice,
	"bunch": Bunch, "bunches": Bunch,
	"sprig": Sprig, "sprigs": Sprig,
	"can": Can, "cans": Can,
	"package": Package, "packages": Package, "pkg": Package, "pkgs": Package,
	"each": Each, "whole": Each, "piece": Each, "pieces": Each,
}

// Resolve performs a case-insensitive, plural- and abbreviation-tolerant
// lookup of a free-text token against the alias table. Unknown tokens return
// ("", false); callers treat those as unit-less and fold the token back into
// the ingredient name.
func Resolve(token string) (Unit, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimSuffix(t, ".")
	if t == "" {
		return "", false
	}
	// Exact canonical names resolve too ("TABLESPOON", "weight_ounce").
	if u := Unit(strings.ToUpper(t)); Valid(u) {
		return u, true
	}
	u, ok := aliases[t]
	return u, ok
}

// Collective reports whether a unit measures an amount of something rather
// than counting discrete items. Parsed names keep their natural plural for
// collective units and are singularized for count-style ones.
func Collective(u Unit) bool {
	switch u {
	case Each, Clove, Stick, Slice, Can, Package, Bunch, Sprig:
		return false
	default:
		return true
	}
}
