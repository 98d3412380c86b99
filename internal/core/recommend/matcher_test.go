package recommend

import (
	"testing"

	"meal-planner-api/internal/core/catalog"
)

func testCatalog() []catalog.Ingredient {
	return []catalog.Ingredient{
		{ID: "1", Name: "Cà chua"},
		{ID: "2", Name: "Tofu"},
		{ID: "3", Name: "Bell Pepper"},
		{ID: "4", Name: "Chicken Breast"},
	}
}

func TestMatchByNormalizedName(t *testing.T) {
	matched := Match([]string{"ca chua", "TOFU", "egg"}, testCatalog())

	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	ids := map[string]bool{}
	for _, ing := range matched {
		ids[ing.ID] = true
	}
	if !ids["1"] || !ids["2"] {
		t.Errorf("expected ingredients 1 and 2, got %v", ids)
	}
}

func TestMatchSoundness(t *testing.T) {
	detected := []string{"bell-pepper", "chicken breast."}
	matched := Match(detected, testCatalog())

	want := map[string]struct{}{}
	for _, name := range detected {
		want[Normalize(name)] = struct{}{}
	}
	for _, ing := range matched {
		if _, ok := want[Normalize(ing.Name)]; !ok {
			t.Errorf("matched ingredient %q not in the detected set", ing.Name)
		}
	}
}

func TestMatchEmptyResults(t *testing.T) {
	if got := Match(nil, testCatalog()); got != nil {
		t.Errorf("expected nil for no detected names, got %v", got)
	}
	if got := Match([]string{"durian"}, testCatalog()); got != nil {
		t.Errorf("expected nil for unknown names, got %v", got)
	}
	if got := Match([]string{"!!!", "   "}, testCatalog()); got != nil {
		t.Errorf("expected nil for garbage names, got %v", got)
	}
}
