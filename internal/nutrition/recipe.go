package nutrition

// CompileItem is one recipe ingredient: a food reference with the amount
// used, plus the snapshot captured when the ingredient was added.
type CompileItem struct {
	FoodID   string
	Amount   float64
	Snapshot *Profile
}

// RecipeFood is what the compiler needs to know about a referenced food.
// Items and Portions are populated only when the profile is a recipe, so
// nested recipes can be recompiled transitively.
type RecipeFood struct {
	Profile  *Profile
	Items    []CompileItem
	Portions float64
}

// RecipeResolver looks a food up by id. ok=false means the food no longer
// exists and the ingredient falls back to its snapshot.
type RecipeResolver func(id string) (*RecipeFood, bool)

// CompileRecipe derives the per-portion nutrient profile of a recipe from
// its weighted ingredient list. Standard ingredients are normalized against
// their base amount (gram/ml inputs over the usual base of 100); ingredient
// recipes contribute per portion count. Nesting recurses to arbitrary depth;
// a self-referential recipe graph fails closed, contributing zero for the
// offending ingredient instead of looping.
//
// The second return value is the summed weight of non-recipe ingredients,
// tracked for display only.
func CompileRecipe(selfID string, items []CompileItem, portions float64, resolve RecipeResolver) (Profile, float64) {
	visited := map[string]bool{selfID: true}
	return compile(items, portions, resolve, visited)
}

func compile(items []CompileItem, portions float64, resolve RecipeResolver, visited map[string]bool) (Profile, float64) {
	sum := Profile{
		Type:     FoodRecipe,
		Vitamins: map[string]float64{},
		Minerals: map[string]float64{},
	}
	var weight float64

	for _, it := range items {
		p := ingredientProfile(it, resolve, visited)
		if p == nil {
			continue
		}

		ratio := Ratio(p, it.Amount, "")
		if !p.IsRecipe() {
			weight += it.Amount
		}

		sum.ProteinG += p.ProteinG * ratio
		sum.CarbsG += p.CarbsG * ratio
		sum.FatG += p.FatG * ratio
		sum.FiberG += p.FiberG * ratio
		for k, v := range p.Vitamins {
			sum.Vitamins[k] += v * ratio
		}
		for k, v := range p.Minerals {
			sum.Minerals[k] += v * ratio
		}
	}

	if portions <= 0 {
		portions = 1
	}
	sum.Portions = portions
	sum.BaseAmount = 1

	sum.ProteinG /= portions
	sum.CarbsG /= portions
	sum.FatG /= portions
	sum.FiberG /= portions
	for k := range sum.Vitamins {
		sum.Vitamins[k] /= portions
	}
	for k := range sum.Minerals {
		sum.Minerals[k] /= portions
	}

	return sum, weight
}

// ingredientProfile resolves one ingredient's nutrient source. Live recipes
// are recompiled transitively so that edits to a nested recipe propagate;
// cycle hits and dangling references without a snapshot resolve to nil
// (zero contribution).
func ingredientProfile(it CompileItem, resolve RecipeResolver, visited map[string]bool) *Profile {
	if it.FoodID != "" && !visited[it.FoodID] {
		if food, ok := resolve(it.FoodID); ok && food.Profile != nil {
			if !food.Profile.IsRecipe() {
				return food.Profile
			}
			visited[it.FoodID] = true
			nested, _ := compile(food.Items, food.Portions, resolve, visited)
			delete(visited, it.FoodID)
			nested.Name = food.Profile.Name
			return &nested
		}
	} else if visited[it.FoodID] {
		// Cycle: fail closed.
		return nil
	}

	if it.Snapshot != nil {
		return it.Snapshot
	}
	return nil
}
