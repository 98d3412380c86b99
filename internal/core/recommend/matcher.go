package recommend

import (
	"meal-planner-api/internal/core/catalog"
)

// Match maps detected ingredient names to catalog ingredients by
// normalized-name equality. One pass: the normalized detected-name set
// is built once, then each catalog ingredient is checked against it.
// An empty result is a valid outcome, not an error.
func Match(detectedNames []string, ingredients []catalog.Ingredient) []catalog.Ingredient {
	detected := make(map[string]struct{}, len(detectedNames))
	for _, name := range detectedNames {
		if n := Normalize(name); n != "" {
			detected[n] = struct{}{}
		}
	}
	if len(detected) == 0 {
		return nil
	}

	var matched []catalog.Ingredient
	for _, ing := range ingredients {
		if _, ok := detected[Normalize(ing.Name)]; ok {
			matched = append(matched, ing)
		}
	}
	return matched
}
