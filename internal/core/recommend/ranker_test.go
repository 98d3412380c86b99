package recommend

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/catalog"
)

type fakeCandidateSource struct {
	byDiet map[string][]catalog.Meal
	calls  []string
}

func (f *fakeCandidateSource) FindCandidates(_ context.Context, _ []string, dietType string) ([]catalog.Meal, error) {
	f.calls = append(f.calls, dietType)
	return f.byDiet[dietType], nil
}

func meal(name string, rating float64, ingredientIDs ...interface{}) catalog.Meal {
	return catalog.Meal{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Rating:      rating,
		Ingredients: ingredientIDs,
	}
}

func TestRankOrdersByOverlapThenRating(t *testing.T) {
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{
		"": {
			meal("one ingredient", 5.0, "a"),
			meal("two ingredients low rated", 2.0, "a", "b"),
			meal("two ingredients high rated", 4.0, "a", "b"),
			meal("no overlap", 5.0, "x"),
		},
	}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), []string{"a", "b"}, "", 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 results, got %d", len(got))
	}

	wantOrder := []string{
		"two ingredients high rated",
		"two ingredients low rated",
		"one ingredient",
		"no overlap",
	}
	for i, want := range wantOrder {
		if got[i].Meal.Name != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].Meal.Name, want)
		}
	}
	if got[0].Score != 2 || got[2].Score != 1 || got[3].Score != 0 {
		t.Errorf("unexpected scores: %d %d %d %d", got[0].Score, got[1].Score, got[2].Score, got[3].Score)
	}
}

func TestRankDuplicateIngredientCountsOnce(t *testing.T) {
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{
		"": {meal("duplicated ref", 3.0, "a", "a", "a")},
	}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), []string{"a"}, "", 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got[0].Score != 1 {
		t.Errorf("duplicated ingredient scored %d, want 1", got[0].Score)
	}
}

func TestRankMixedIDRepresentations(t *testing.T) {
	oid := primitive.NewObjectID()
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{
		"": {meal("objectid ref", 3.0, oid)},
	}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), []string{oid.Hex()}, "", 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got[0].Score != 1 {
		t.Errorf("ObjectID ingredient ref scored %d, want 1", got[0].Score)
	}
}

func TestRankLimit(t *testing.T) {
	meals := make([]catalog.Meal, 0, 10)
	for i := 0; i < 10; i++ {
		meals = append(meals, meal("m", float64(i), "a"))
	}
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{"": meals}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), []string{"a"}, "", 3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}

func TestRankRelaxesDietFilterWhenEmpty(t *testing.T) {
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{
		"WeightLoss": {},
		"":           {meal("fallback", 4.0, "a")},
	}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), []string{"a"}, "WeightLoss", 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].Meal.Name != "fallback" {
		t.Fatalf("expected relaxed fallback result, got %v", got)
	}
	if len(source.calls) != 2 || source.calls[0] != "WeightLoss" || source.calls[1] != "" {
		t.Errorf("unexpected call sequence: %v", source.calls)
	}
}

func TestRankNoRelaxationWithoutIngredients(t *testing.T) {
	source := &fakeCandidateSource{byDiet: map[string][]catalog.Meal{"WeightLoss": {}}}
	ranker := NewRanker(source, zap.NewNop())

	got, err := ranker.Rank(context.Background(), nil, "WeightLoss", 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
	if len(source.calls) != 1 {
		t.Errorf("expected a single query, got %v", source.calls)
	}
}
