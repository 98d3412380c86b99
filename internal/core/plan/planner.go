package plan

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"meal-planner-api/internal/core/catalog"
	"meal-planner-api/internal/core/user"
	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/pkg/common"
)

// Activity levels and their TDEE multipliers. The map doubles as the
// validation source: an activity level is valid iff it has a factor.
var activityFactors = map[string]float64{
	"sedentary": 1.2,
	"moderate":  1.55,
	"active":    1.725,
}

// Goals and their calorie adjustments on top of TDEE.
var goalAdjustments = map[string]int{
	"lose":     -500,
	"maintain": 0,
	"gain":     500,
}

// goalDietTypes maps each goal to the diet type used for meal selection.
var goalDietTypes = map[string]string{
	"lose":     catalog.DietWeightLoss,
	"gain":     catalog.DietWeightGain,
	"maintain": catalog.DietEatClean,
}

// Calorie split across the day: breakfast light, lunch and dinner equal.
const (
	breakfastShare = 0.20
	lunchShare     = 0.40
	dinnerShare    = 0.40
)

// kcalWindowRatio widens each bucket's calorie budget into a search
// window on either side.
const kcalWindowRatio = 0.15

// PlanRequest is the planning input. Height and weight override the
// profile values for this run only.
type PlanRequest struct {
	HeightCm      float64 `json:"heightCm" binding:"required"`
	WeightKg      float64 `json:"weightKg" binding:"required"`
	ActivityLevel string  `json:"activityLevel" binding:"required"`
	Goal          string  `json:"goal" binding:"required"`
}

// MealSelector fetches meal suggestions for one bucket.
type MealSelector interface {
	FindForMealTime(ctx context.Context, mealTime, dietType string, minKcal, maxKcal int, limit int64) ([]catalog.MealSummary, error)
}

// HistoryStore saves finished plans.
type HistoryStore interface {
	Insert(ctx context.Context, p *MealPlan) error
}

// Entitlement decides whether a user may run the planner.
type Entitlement interface {
	IsPremiumActive(ctx context.Context, u *user.User) (bool, error)
}

// Notifier delivers a plan-created notification. Implementations must
// not fail the planning request.
type Notifier interface {
	PlanCreated(ctx context.Context, userID primitive.ObjectID, p *MealPlan)
}

// Planner computes BMI-based calorie plans with meal suggestions.
type Planner struct {
	meals       MealSelector
	history     HistoryStore
	entitlement Entitlement
	notifier    Notifier
	cfg         config.PlanConfig
	log         *zap.Logger
}

// NewPlanner creates a planner.
func NewPlanner(meals MealSelector, history HistoryStore, entitlement Entitlement, notifier Notifier, cfg config.PlanConfig, log *zap.Logger) *Planner {
	return &Planner{
		meals:       meals,
		history:     history,
		entitlement: entitlement,
		notifier:    notifier,
		cfg:         cfg,
		log:         log.Named("planner"),
	}
}

// Plan validates the request, checks premium entitlement, derives the
// calorie numbers and fills each bucket with candidate meals. The plan
// is saved to history best-effort: a failed save is logged but the
// computed plan is still returned.
func (p *Planner) Plan(ctx context.Context, usr *user.User, req PlanRequest) (*MealPlan, error) {
	// Tokens are compared in normalized form so "Moderate " and
	// "moderate" mean the same thing.
	req.ActivityLevel = strings.ToLower(strings.TrimSpace(req.ActivityLevel))
	req.Goal = strings.ToLower(strings.TrimSpace(req.Goal))

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if usr == nil {
		return nil, common.ErrUnauthenticated
	}
	active, err := p.entitlement.IsPremiumActive(ctx, usr)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, common.ErrPaymentRequired
	}

	result := p.compute(usr, req)

	if err := p.fillBuckets(ctx, &result); err != nil {
		return nil, err
	}

	mealPlan := &MealPlan{
		UserID: usr.ID,
		Input: Input{
			HeightCm:      req.HeightCm,
			WeightKg:      req.WeightKg,
			ActivityLevel: req.ActivityLevel,
			Goal:          req.Goal,
		},
		Result:    result,
		CreatedAt: time.Now(),
	}

	if err := p.history.Insert(ctx, mealPlan); err != nil {
		p.log.Error("failed to save meal plan", zap.Error(err), zap.String("user_id", usr.ID.Hex()))
	} else if p.notifier != nil {
		p.notifier.PlanCreated(ctx, usr.ID, mealPlan)
	}

	return mealPlan, nil
}

// compute derives BMI, BMR, TDEE, the calorie target and its breakdown.
func (p *Planner) compute(usr *user.User, req PlanRequest) Result {
	heightM := req.HeightCm / 100
	bmi := math.Round(req.WeightKg/(heightM*heightM)*10) / 10

	age := p.cfg.DefaultAge
	if a, ok := usr.AgeAt(time.Now()); ok && a >= user.MinAge && a <= user.MaxAge {
		age = a
	}

	// Mifflin-St Jeor.
	genderTerm := -161.0
	if usr.Gender == "male" {
		genderTerm = 5.0
	}
	bmr := int(math.Round(10*req.WeightKg + 6.25*req.HeightCm - 5*float64(age) + genderTerm))
	tdee := int(math.Round(float64(bmr) * activityFactors[req.ActivityLevel]))

	target := tdee + goalAdjustments[req.Goal]
	if target < p.cfg.CalorieFloor {
		target = p.cfg.CalorieFloor
	}

	return Result{
		BMI:           bmi,
		BMIClass:      classifyBMI(bmi),
		BMR:           bmr,
		TDEE:          tdee,
		CalorieTarget: target,
		Breakdown: Breakdown{
			Breakfast: int(math.Round(float64(target) * breakfastShare)),
			Lunch:     int(math.Round(float64(target) * lunchShare)),
			Dinner:    int(math.Round(float64(target) * dinnerShare)),
		},
		DietType: goalDietTypes[req.Goal],
	}
}

// fillBuckets queries the three buckets concurrently. An empty bucket is
// a valid outcome; a query error is not.
func (p *Planner) fillBuckets(ctx context.Context, result *Result) error {
	buckets := map[string]int{
		catalog.MealTimeBreakfast: result.Breakdown.Breakfast,
		catalog.MealTimeLunch:     result.Breakdown.Lunch,
		catalog.MealTimeDinner:    result.Breakdown.Dinner,
	}

	limit := int64(p.cfg.MealsPerSlot)
	if limit <= 0 {
		limit = 10
	}

	meals := make(map[string][]catalog.MealSummary, len(buckets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for mealTime, budget := range buckets {
		mealTime, budget := mealTime, budget
		g.Go(func() error {
			minKcal := int(math.Round(float64(budget) * (1 - kcalWindowRatio)))
			maxKcal := int(math.Round(float64(budget) * (1 + kcalWindowRatio)))
			items, err := p.meals.FindForMealTime(gctx, mealTime, result.DietType, minKcal, maxKcal, limit)
			if err != nil {
				return err
			}
			if items == nil {
				items = []catalog.MealSummary{}
			}
			mu.Lock()
			meals[mealTime] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result.Meals = meals
	return nil
}

func validateRequest(req PlanRequest) error {
	if req.HeightCm <= 0 {
		return common.NewValidationError("heightCm must be positive")
	}
	if req.WeightKg <= 0 {
		return common.NewValidationError("weightKg must be positive")
	}
	if _, ok := activityFactors[req.ActivityLevel]; !ok {
		return common.NewValidationError("activityLevel must be 'sedentary', 'moderate' or 'active'")
	}
	if _, ok := goalAdjustments[req.Goal]; !ok {
		return common.NewValidationError("goal must be 'lose', 'maintain' or 'gain'")
	}
	return nil
}

func classifyBMI(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obesity"
	}
}
