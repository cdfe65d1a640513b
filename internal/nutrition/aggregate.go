package nutrition

// Item is one meal entry prepared for aggregation: the live food profile (if
// it still exists), the snapshot captured when the item was added, and the
// logged quantity. Malformed marks entries with no food reference at all.
type Item struct {
	Live      *Profile
	Snapshot  *Profile
	Amount    float64
	Unit      string
	Malformed bool
}

// Totals is the summed nutrient result of aggregating a meal.
type Totals struct {
	Calories float64            `json:"calories"`
	ProteinG float64            `json:"protein_g"`
	CarbsG   float64            `json:"carbs_g"`
	FatG     float64            `json:"fat_g"`
	FiberG   float64            `json:"fiber_g"`
	Vitamins map[string]float64 `json:"vitamins"`
	Minerals map[string]float64 `json:"minerals"`

	// DeletedItems counts entries that fell back to their snapshot because
	// the live food no longer exists.
	DeletedItems int `json:"deleted_items"`
}

var zeroProfile = Profile{Type: FoodStandard, BaseAmount: 100, DefaultUnit: "g"}

// Resolve picks the nutrient source for an item: the live food when present,
// the snapshot when the food was deleted (deleted=true), and a zeroed
// placeholder when neither exists.
func (it *Item) Resolve() (p *Profile, deleted bool) {
	if it.Live != nil {
		return it.Live, false
	}
	if it.Snapshot != nil {
		return it.Snapshot, true
	}
	return &zeroProfile, true
}

// Aggregate walks the meal's items and sums macro and micronutrient
// contributions. Vitamin/mineral keys are unioned across items: a nutrient
// absent from one food simply contributes zero. Malformed items are skipped
// silently: a tolerated data-quality gap, not an error.
func Aggregate(items []Item) Totals {
	t := Totals{
		Vitamins: map[string]float64{},
		Minerals: map[string]float64{},
	}

	for i := range items {
		it := &items[i]
		if it.Malformed {
			continue
		}

		p, deleted := it.Resolve()
		if deleted && it.Snapshot != nil {
			t.DeletedItems++
		}

		ratio := Ratio(p, it.Amount, it.Unit)

		t.ProteinG += p.ProteinG * ratio
		t.CarbsG += p.CarbsG * ratio
		t.FatG += p.FatG * ratio
		t.FiberG += p.FiberG * ratio
		for k, v := range p.Vitamins {
			t.Vitamins[k] += v * ratio
		}
		for k, v := range p.Minerals {
			t.Minerals[k] += v * ratio
		}
	}

	t.Calories = Calories(t.ProteinG, t.CarbsG, t.FatG)
	return t
}
