package nutrition

import "testing"

func chicken() *Profile {
	return &Profile{
		Name:        "Chicken Breast",
		Type:        FoodStandard,
		BaseAmount:  100,
		DefaultUnit: "g",
		ProteinG:    31,
		CarbsG:      0,
		FatG:        3.6,
		Vitamins:    map[string]float64{"b6": 0.6},
		Minerals:    map[string]float64{"iron": 1},
	}
}

func rice() *Profile {
	return &Profile{
		Name:        "White Rice",
		Type:        FoodStandard,
		BaseAmount:  100,
		DefaultUnit: "g",
		ProteinG:    2.7,
		CarbsG:      28,
		FatG:        0.3,
		FiberG:      0.4,
		Minerals:    map[string]float64{"iron": 0.2, "magnesium": 12},
	}
}

func TestAggregateHundredGramsYieldsStoredValues(t *testing.T) {
	items := []Item{{Live: chicken(), Amount: 100, Unit: "g"}}

	got := Aggregate(items)
	if !almostEqual(got.ProteinG, 31) || !almostEqual(got.FatG, 3.6) {
		t.Fatalf("100g item must yield stored macros exactly, got %+v", got)
	}
	if !almostEqual(got.Calories, 31*4+3.6*9) {
		t.Fatalf("calories must be derived from macros, got %v", got.Calories)
	}
	if !almostEqual(got.Vitamins["b6"], 0.6) {
		t.Fatalf("expected b6 0.6, got %v", got.Vitamins["b6"])
	}
}

func TestAggregateUnionsMicronutrientKeys(t *testing.T) {
	items := []Item{
		{Live: chicken(), Amount: 100, Unit: "g"},
		{Live: rice(), Amount: 200, Unit: "g"},
	}

	got := Aggregate(items)
	if !almostEqual(got.Minerals["iron"], 1+0.4) {
		t.Fatalf("iron should sum across items, got %v", got.Minerals["iron"])
	}
	if !almostEqual(got.Minerals["magnesium"], 24) {
		t.Fatalf("magnesium present in only one food still aggregates, got %v", got.Minerals["magnesium"])
	}
	if !almostEqual(got.Vitamins["b6"], 0.6) {
		t.Fatalf("b6 absent from rice contributes zero, got %v", got.Vitamins["b6"])
	}
}

func TestAggregateSnapshotFallbackWhenFoodDeleted(t *testing.T) {
	snap := chicken()
	withLive := Aggregate([]Item{{Live: chicken(), Snapshot: snap, Amount: 150, Unit: "g"}})
	withoutLive := Aggregate([]Item{{Live: nil, Snapshot: snap, Amount: 150, Unit: "g"}})

	// Deleting the food must not change the item's computed contribution.
	if !almostEqual(withLive.ProteinG, withoutLive.ProteinG) || !almostEqual(withLive.Calories, withoutLive.Calories) {
		t.Fatalf("snapshot fallback changed totals: %+v vs %+v", withLive, withoutLive)
	}
	if withoutLive.DeletedItems != 1 {
		t.Fatalf("expected 1 deleted item, got %d", withoutLive.DeletedItems)
	}
}

func TestAggregateZeroPlaceholderWhenNothingResolves(t *testing.T) {
	got := Aggregate([]Item{{Amount: 100, Unit: "g"}})
	if got.Calories != 0 || got.ProteinG != 0 {
		t.Fatalf("item with no live food and no snapshot must contribute zero, got %+v", got)
	}
}

func TestAggregateSkipsMalformedItems(t *testing.T) {
	items := []Item{
		{Malformed: true, Live: chicken(), Amount: 100, Unit: "g"},
		{Live: rice(), Amount: 100, Unit: "g"},
	}

	got := Aggregate(items)
	if !almostEqual(got.ProteinG, 2.7) {
		t.Fatalf("malformed item must be skipped silently, got protein %v", got.ProteinG)
	}
}

func TestAggregateRecipePortions(t *testing.T) {
	perPortion := &Profile{
		Type:     FoodRecipe,
		Portions: 4,
		ProteinG: 10,
		CarbsG:   20,
		FatG:     5,
	}

	got := Aggregate([]Item{{Live: perPortion, Amount: 2, Unit: ""}})
	if !almostEqual(got.ProteinG, 20) || !almostEqual(got.CarbsG, 40) {
		t.Fatalf("2 portions must double per-portion values, got %+v", got)
	}
}
