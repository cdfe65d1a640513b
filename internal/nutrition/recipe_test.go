package nutrition

import "testing"

func TestCompileRecipePerPortion(t *testing.T) {
	foods := map[string]*RecipeFood{
		"chicken": {Profile: chicken()},
		"rice":    {Profile: rice()},
	}
	resolve := func(id string) (*RecipeFood, bool) {
		f, ok := foods[id]
		return f, ok
	}

	items := []CompileItem{
		{FoodID: "chicken", Amount: 300},
		{FoodID: "rice", Amount: 200},
	}

	got, weight := CompileRecipe("bowl", items, 4, resolve)

	wantProtein := (31*3 + 2.7*2) / 4
	if !almostEqual(got.ProteinG, wantProtein) {
		t.Fatalf("expected per-portion protein %v, got %v", wantProtein, got.ProteinG)
	}
	if !almostEqual(weight, 500) {
		t.Fatalf("expected ingredient weight 500, got %v", weight)
	}
	if got.Portions != 4 {
		t.Fatalf("expected portions 4, got %v", got.Portions)
	}
}

func TestCompileRecipeRoundTrip(t *testing.T) {
	resolve := func(id string) (*RecipeFood, bool) {
		if id == "rice" {
			return &RecipeFood{Profile: rice()}, true
		}
		return nil, false
	}

	items := []CompileItem{{FoodID: "rice", Amount: 350}}
	portions := 3.0

	got, _ := CompileRecipe("r", items, portions, resolve)

	// compile(items, portions).protein * portions == sum of contributions.
	if !almostEqual(got.ProteinG*portions, 2.7*3.5) {
		t.Fatalf("round-trip failed: %v * %v != %v", got.ProteinG, portions, 2.7*3.5)
	}
}

func TestCompileRecipeNested(t *testing.T) {
	foods := map[string]*RecipeFood{
		"rice": {Profile: rice()},
		"base": {
			Profile:  &Profile{Name: "Rice Base", Type: FoodRecipe},
			Items:    []CompileItem{{FoodID: "rice", Amount: 400}},
			Portions: 2,
		},
	}
	resolve := func(id string) (*RecipeFood, bool) {
		f, ok := foods[id]
		return f, ok
	}

	// One portion of the nested recipe per portion of the outer one.
	items := []CompileItem{{FoodID: "base", Amount: 2}}
	got, weight := CompileRecipe("outer", items, 2, resolve)

	// base: 400g rice / 2 portions = 2x rice profile per portion.
	wantProtein := (2.7 * 2) * 2 / 2
	if !almostEqual(got.ProteinG, wantProtein) {
		t.Fatalf("nested recipe: expected protein %v, got %v", wantProtein, got.ProteinG)
	}
	// Recipe ingredients don't count toward displayed weight.
	if !almostEqual(weight, 0) {
		t.Fatalf("expected weight 0 for recipe-only ingredients, got %v", weight)
	}
}

func TestCompileRecipeSelfReferenceFailsClosed(t *testing.T) {
	var foods map[string]*RecipeFood
	resolve := func(id string) (*RecipeFood, bool) {
		f, ok := foods[id]
		return f, ok
	}
	foods = map[string]*RecipeFood{
		"rice": {Profile: rice()},
	}
	foods["loop"] = &RecipeFood{
		Profile:  &Profile{Name: "Loop", Type: FoodRecipe},
		Items:    []CompileItem{{FoodID: "loop", Amount: 1}, {FoodID: "rice", Amount: 100}},
		Portions: 1,
	}

	got, _ := CompileRecipe("loop", foods["loop"].Items, 1, resolve)

	// The self-reference contributes zero; the rice still counts.
	if !almostEqual(got.ProteinG, 2.7) {
		t.Fatalf("expected only rice contribution 2.7, got %v", got.ProteinG)
	}
}

func TestCompileRecipeMutualCycleFailsClosed(t *testing.T) {
	var foods map[string]*RecipeFood
	resolve := func(id string) (*RecipeFood, bool) {
		f, ok := foods[id]
		return f, ok
	}
	foods = map[string]*RecipeFood{
		"a": {
			Profile:  &Profile{Name: "A", Type: FoodRecipe},
			Items:    []CompileItem{{FoodID: "b", Amount: 1}},
			Portions: 1,
		},
		"b": {
			Profile:  &Profile{Name: "B", Type: FoodRecipe},
			Items:    []CompileItem{{FoodID: "a", Amount: 1}},
			Portions: 1,
		},
	}

	got, _ := CompileRecipe("a", foods["a"].Items, 1, resolve)
	if got.ProteinG != 0 || got.CarbsG != 0 {
		t.Fatalf("mutual cycle must contribute zero, got %+v", got)
	}
}

func TestCompileRecipeDeletedIngredientUsesSnapshot(t *testing.T) {
	resolve := func(id string) (*RecipeFood, bool) { return nil, false }

	items := []CompileItem{{FoodID: "gone", Amount: 100, Snapshot: chicken()}}
	got, _ := CompileRecipe("r", items, 1, resolve)

	if !almostEqual(got.ProteinG, 31) {
		t.Fatalf("deleted ingredient must fall back to snapshot, got %v", got.ProteinG)
	}
}

func TestCompileRecipeZeroPortionsTreatedAsOne(t *testing.T) {
	resolve := func(id string) (*RecipeFood, bool) { return nil, false }
	got, _ := CompileRecipe("r", []CompileItem{{Snapshot: rice(), Amount: 100}}, 0, resolve)
	if !almostEqual(got.ProteinG, 2.7) {
		t.Fatalf("portions 0 must behave as 1, got %v", got.ProteinG)
	}
}
