package nutrition

// FoodType distinguishes plain foods from compiled recipes. The two kinds
// scale differently: standard foods are normalized against a base amount,
// recipes are counted in portions.
type FoodType string

const (
	FoodStandard FoodType = "standard"
	FoodRecipe   FoodType = "recipe"
)

// Profile is the nutrient profile of a food per its base amount. It is also
// the shape embedded into meal and recipe items as an immutable snapshot, so
// that logged nutrition survives later edits or deletion of the food itself.
type Profile struct {
	Name        string             `json:"name"`
	Type        FoodType           `json:"type"`
	BaseAmount  float64            `json:"base_amount"`
	DefaultUnit string             `json:"default_unit"` // g | ml | unit
	ProteinG    float64            `json:"protein_g"`
	CarbsG      float64            `json:"carbs_g"`
	FatG        float64            `json:"fat_g"`
	FiberG      float64            `json:"fiber_g"`
	Vitamins    map[string]float64 `json:"vitamins,omitempty"`
	Minerals    map[string]float64 `json:"minerals,omitempty"`
	Portions    float64            `json:"portions,omitempty"` // recipes only
}

// IsRecipe reports whether the profile describes a recipe.
func (p *Profile) IsRecipe() bool {
	return p.Type == FoodRecipe
}

// EffectiveBaseAmount returns the base amount the macro fields describe,
// applying the documented defaults when the field was never set: 100 for
// mass/volume foods, 1 for unit-counted foods and recipes.
func (p *Profile) EffectiveBaseAmount() float64 {
	if p.BaseAmount > 0 {
		return p.BaseAmount
	}
	if p.DefaultUnit == "g" || p.DefaultUnit == "ml" {
		return 100
	}
	return 1
}

// Calories derives kilocalories from the macro fields using Atwater factors.
// Calories are never stored: every surface that shows them (food listings,
// meal summaries, recipe previews) derives them from protein/carbs/fat.
// Fiber does not contribute.
func Calories(proteinG, carbsG, fatG float64) float64 {
	return proteinG*4 + carbsG*4 + fatG*9
}

// Calories derives the profile's kilocalories per base amount.
func (p *Profile) Calories() float64 {
	return Calories(p.ProteinG, p.CarbsG, p.FatG)
}
