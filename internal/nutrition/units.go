package nutrition

import (
	"strconv"
	"strings"
)

// Fixed conversion factors into the food's own base unit. Mass units convert
// into grams, volume units into milliliters. Units missing from the table
// (including the base units themselves) use factor 1, i.e. the amount is
// treated as already expressed in the base unit.
var unitFactors = map[string]float64{
	// mass (base = g)
	"kg": 1000,
	"oz": 28.3495,
	"lb": 453.592,

	// volume (base = ml)
	"l": 1000,
}

const customUnitPrefix = "custom:"

// ParseCustomUnit decodes a "custom:<gramsPerUnit>:<label>" unit string,
// the encoding used for user-defined conversions ("bolsa" = 250 g and the
// like). Returns ok=false for anything else.
func ParseCustomUnit(unit string) (gramsPerUnit float64, label string, ok bool) {
	if !strings.HasPrefix(unit, customUnitPrefix) {
		return 0, "", false
	}
	rest := strings.TrimPrefix(unit, customUnitPrefix)
	parts := strings.SplitN(rest, ":", 2)
	grams, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || grams <= 0 {
		return 0, "", false
	}
	if len(parts) == 2 {
		label = parts[1]
	}
	return grams, label, true
}

// UnitFactor returns the fixed factor that converts one of `unit` into the
// base unit (grams or milliliters), defaulting to 1 for unrecognized units.
func UnitFactor(unit string) float64 {
	if f, ok := unitFactors[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return f
	}
	return 1
}

// Ratio resolves a logged amount+unit against a food's nutrient profile into
// the dimensionless factor by which every stored nutrient value must be
// multiplied to obtain the item's contribution.
//
// Recipes are portion-counted: the ratio is the raw portion count and mass
// factors never apply. This is the single canonical rule for recipe-typed
// foods, used identically by meal aggregation and recipe compilation.
// Standard foods normalize the amount (converted to the base unit) against
// the profile's base amount.
//
// Negative or NaN amounts are the caller's problem: they are rejected at the
// mutation endpoints before anything reaches this function.
func Ratio(p *Profile, amount float64, unit string) float64 {
	if grams, _, ok := ParseCustomUnit(unit); ok {
		if p.IsRecipe() {
			return amount
		}
		return amount * grams / p.EffectiveBaseAmount()
	}

	if p.IsRecipe() {
		return amount
	}

	return amount * UnitFactor(unit) / p.EffectiveBaseAmount()
}
