package catalog

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meal-planner-api/internal/pkg/common"
)

func TestCanonicalID(t *testing.T) {
	oid := primitive.NewObjectID()

	if got := CanonicalID(oid); got != oid.Hex() {
		t.Errorf("CanonicalID(ObjectID) = %q, want %q", got, oid.Hex())
	}
	if got := CanonicalID("plain-id"); got != "plain-id" {
		t.Errorf("CanonicalID(string) = %q", got)
	}
	// Mixed representations of the same id must collapse to one form.
	if CanonicalID(oid) != CanonicalID(oid.Hex()) {
		t.Error("ObjectID and its hex string canonicalize differently")
	}
}

func TestIngredientIDsMixedForms(t *testing.T) {
	oid := primitive.NewObjectID()
	m := Meal{Ingredients: []interface{}{oid, "abc", oid.Hex()}}

	ids := m.IngredientIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if ids[0] != oid.Hex() || ids[1] != "abc" || ids[2] != oid.Hex() {
		t.Errorf("unexpected canonical ids: %v", ids)
	}
}

func TestMealValidate(t *testing.T) {
	valid := Meal{
		Name:        "pho",
		Ingredients: []interface{}{"a"},
		DietType:    DietEatClean,
		MealTime:    []string{MealTimeBreakfast, MealTimeLunch},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid meal rejected: %v", err)
	}

	noIngredients := valid
	noIngredients.Ingredients = nil
	if err := noIngredients.Validate(); !common.IsValidationError(err) {
		t.Errorf("empty ingredients accepted: %v", err)
	}

	badDiet := valid
	badDiet.DietType = "Keto"
	if err := badDiet.Validate(); !common.IsValidationError(err) {
		t.Errorf("unknown diet type accepted: %v", err)
	}

	badMealTime := valid
	badMealTime.MealTime = []string{"brunch"}
	if err := badMealTime.Validate(); !common.IsValidationError(err) {
		t.Errorf("unknown meal time accepted: %v", err)
	}
}

func TestIngredientRefForms(t *testing.T) {
	oid := primitive.NewObjectID()
	forms := ingredientRefForms([]string{oid.Hex(), "not-hex"})

	// Hex ids expand to string + ObjectID; others stay string-only.
	if len(forms) != 3 {
		t.Fatalf("expected 3 forms, got %d", len(forms))
	}
	if forms[0] != oid.Hex() {
		t.Errorf("first form = %v", forms[0])
	}
	if got, ok := forms[1].(primitive.ObjectID); !ok || got != oid {
		t.Errorf("second form = %v, want ObjectID", forms[1])
	}
	if forms[2] != "not-hex" {
		t.Errorf("third form = %v", forms[2])
	}
}
