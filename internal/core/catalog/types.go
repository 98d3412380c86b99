package catalog

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meal-planner-api/internal/pkg/common"
)

// Diet types attached to meals. Derived from the user's goal on the
// planning path, optional filter on the recognition path.
const (
	DietWeightLoss = "WeightLoss"
	DietWeightGain = "WeightGain"
	DietEatClean   = "EatClean"
)

// DietTypes lists the recognized diet type values.
var DietTypes = []string{DietWeightLoss, DietWeightGain, DietEatClean}

// Meal time buckets.
const (
	MealTimeBreakfast = "breakfast"
	MealTimeLunch     = "lunch"
	MealTimeDinner    = "dinner"
	MealTimeDessert   = "dessert"
)

// MealTimes lists the recognized meal time values.
var MealTimes = []string{MealTimeBreakfast, MealTimeLunch, MealTimeDinner, MealTimeDessert}

// ValidDietType reports whether s is a recognized diet type.
func ValidDietType(s string) bool {
	for _, d := range DietTypes {
		if s == d {
			return true
		}
	}
	return false
}

// Ingredient is a catalog ingredient. Identity is immutable; the name is
// unique. Ingredient ids are stored as plain strings in this collection.
type Ingredient struct {
	ID       string  `bson:"_id,omitempty" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Calories float64 `bson:"calories,omitempty" json:"calories,omitempty"`
	Unit     string  `bson:"unit" json:"unit"`
	Type     string  `bson:"type" json:"type"`
	Image    string  `bson:"image" json:"image"`
}

// Category is a top-level meal category.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// SubCategory belongs to a Category.
type SubCategory struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Category primitive.ObjectID `bson:"category" json:"category"`
}

// Meal is a catalog meal. Ingredients references are decoded untyped:
// legacy records store ObjectIds while newer ones store plain id
// strings, so identity comparisons must go through CanonicalID.
type Meal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Ingredients  []interface{}      `bson:"ingredients" json:"ingredients"`
	Instructions []string           `bson:"instructions" json:"instructions"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"`
	Category     primitive.ObjectID `bson:"category" json:"category"`
	SubCategory  primitive.ObjectID `bson:"subCategory" json:"subCategory"`
	DietType     string             `bson:"dietType" json:"dietType"`
	TotalKcal    int                `bson:"totalKcal" json:"totalKcal"`
	Tags         []string           `bson:"tag,omitempty" json:"tag,omitempty"`
	MealTime     []string           `bson:"mealTime,omitempty" json:"mealTime,omitempty"`
	Rating       float64            `bson:"rating" json:"rating"`
	Reviews      []string           `bson:"reviews,omitempty" json:"reviews,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt    time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// CanonicalID maps an id value of any stored representation to its
// canonical string form. ObjectIds become their hex encoding; strings
// pass through unchanged.
func CanonicalID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IngredientIDs returns the meal's ingredient references in canonical
// string form.
func (m *Meal) IngredientIDs() []string {
	ids := make([]string, 0, len(m.Ingredients))
	for _, ref := range m.Ingredients {
		ids = append(ids, CanonicalID(ref))
	}
	return ids
}

// Validate checks meal invariants before a write.
func (m *Meal) Validate() error {
	if m.Name == "" {
		return common.NewValidationError("name is required")
	}
	if len(m.Ingredients) == 0 {
		return common.NewValidationError("ingredients must be a non-empty list of ids")
	}
	if !ValidDietType(m.DietType) {
		return common.NewValidationError("dietType must be one of WeightLoss, WeightGain, EatClean")
	}
	for _, mt := range m.MealTime {
		valid := false
		for _, known := range MealTimes {
			if mt == known {
				valid = true
				break
			}
		}
		if !valid {
			return common.NewValidationError("mealTime contains an unknown value: " + mt)
		}
	}
	return nil
}

// MealSummary is the projection returned by plan and recommendation
// responses.
type MealSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	TotalKcal int                `bson:"totalKcal" json:"totalKcal"`
	DietType  string             `bson:"dietType" json:"dietType"`
	MealTime  []string           `bson:"mealTime,omitempty" json:"mealTime,omitempty"`
	Rating    float64            `bson:"rating" json:"rating"`
}

// Summary projects a meal to its summary form.
func (m *Meal) Summary() MealSummary {
	return MealSummary{
		ID:        m.ID,
		Name:      m.Name,
		Image:     m.Image,
		TotalKcal: m.TotalKcal,
		DietType:  m.DietType,
		MealTime:  m.MealTime,
		Rating:    m.Rating,
	}
}
