package recommend

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"meal-planner-api/internal/core/catalog"
)

// DefaultLimit caps ranked results when the caller does not set one.
const DefaultLimit = 50

// CandidateSource fetches candidate meals for ranking. An empty
// ingredient id set means no ingredient restriction; an empty dietType
// means no diet restriction.
type CandidateSource interface {
	FindCandidates(ctx context.Context, ingredientIDs []string, dietType string) ([]catalog.Meal, error)
}

// ScoredMeal pairs a meal with its ingredient-overlap score.
type ScoredMeal struct {
	Meal  catalog.Meal `json:"meal"`
	Score int          `json:"score"`
}

// Ranker orders candidate meals by ingredient overlap with a matched
// set, tie-breaking on rating.
type Ranker struct {
	meals CandidateSource
	log   *zap.Logger
}

// NewRanker creates a ranker over the given candidate source.
func NewRanker(meals CandidateSource, log *zap.Logger) *Ranker {
	return &Ranker{meals: meals, log: log.Named("ranker")}
}

// Rank returns at most limit meals ordered by overlap score descending,
// then rating descending, then original retrieval order. Ids in
// matchedIngredientIDs must already be canonical strings; the meal side
// is canonicalized here, so mixed id representations cannot break the
// intersection.
func (r *Ranker) Rank(ctx context.Context, matchedIngredientIDs []string, dietType string, limit int) ([]ScoredMeal, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := r.fetchWithRelaxation(ctx, matchedIngredientIDs, dietType)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]struct{}, len(matchedIngredientIDs))
	for _, id := range matchedIngredientIDs {
		matched[id] = struct{}{}
	}

	scored := make([]ScoredMeal, 0, len(candidates))
	for _, meal := range candidates {
		scored = append(scored, ScoredMeal{Meal: meal, Score: overlap(meal.IngredientIDs(), matched)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Meal.Rating > scored[j].Meal.Rating
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// fetchWithRelaxation implements the diet-filter relaxation rule: when a
// diet-restricted query over a non-empty ingredient set comes back
// empty, retry once without the diet restriction. The rule is a business
// heuristic kept apart from the scoring so it can be tuned on its own.
func (r *Ranker) fetchWithRelaxation(ctx context.Context, ingredientIDs []string, dietType string) ([]catalog.Meal, error) {
	candidates, err := r.meals.FindCandidates(ctx, ingredientIDs, dietType)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 && dietType != "" && len(ingredientIDs) > 0 {
		r.log.Debug("diet filter relaxed",
			zap.String("diet_type", dietType),
			zap.Int("matched_ingredients", len(ingredientIDs)),
		)
		return r.meals.FindCandidates(ctx, ingredientIDs, "")
	}
	return candidates, nil
}

func overlap(ids []string, matched map[string]struct{}) int {
	if len(matched) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(ids))
	score := 0
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := matched[id]; ok {
			score++
		}
	}
	return score
}
