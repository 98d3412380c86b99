package plan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/catalog"
	"meal-planner-api/internal/core/user"
	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/pkg/common"
)

type selectorCall struct {
	mealTime string
	dietType string
	minKcal  int
	maxKcal  int
	limit    int64
}

type fakeSelector struct {
	mu    sync.Mutex
	calls []selectorCall
	meals map[string][]catalog.MealSummary
	err   error
}

func (f *fakeSelector) FindForMealTime(_ context.Context, mealTime, dietType string, minKcal, maxKcal int, limit int64) ([]catalog.MealSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, selectorCall{mealTime, dietType, minKcal, maxKcal, limit})
	if f.err != nil {
		return nil, f.err
	}
	return f.meals[mealTime], nil
}

type fakeHistory struct {
	mu       sync.Mutex
	inserted []*MealPlan
	err      error
}

func (f *fakeHistory) Insert(_ context.Context, p *MealPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, p)
	return nil
}

type fakeEntitlement struct {
	active bool
	calls  int
}

func (f *fakeEntitlement) IsPremiumActive(_ context.Context, _ *user.User) (bool, error) {
	f.calls++
	return f.active, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) PlanCreated(_ context.Context, _ primitive.ObjectID, _ *MealPlan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func testConfig() config.PlanConfig {
	return config.PlanConfig{DefaultAge: 25, CalorieFloor: 1200, MealsPerSlot: 10}
}

func premiumUser(gender string, age int) *user.User {
	dob := time.Now().AddDate(-age, 0, -1)
	return &user.User{
		ID:        primitive.NewObjectID(),
		Gender:    gender,
		BirthDate: &dob,
	}
}

func newTestPlanner(selector *fakeSelector, history *fakeHistory, entitlement *fakeEntitlement, notifier *fakeNotifier) *Planner {
	return NewPlanner(selector, history, entitlement, notifier, testConfig(), zap.NewNop())
}

func TestPlanComputesCalorieNumbers(t *testing.T) {
	selector := &fakeSelector{meals: map[string][]catalog.MealSummary{
		"breakfast": {{Name: "oats", TotalKcal: 430}},
		"lunch":     {{Name: "chicken rice", TotalKcal: 880}},
		"dinner":    {{Name: "salmon salad", TotalKcal: 890}},
	}}
	history := &fakeHistory{}
	planner := newTestPlanner(selector, history, &fakeEntitlement{active: true}, &fakeNotifier{})

	got, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	r := got.Result
	if r.BMI != 26.1 {
		t.Errorf("BMI = %v, want 26.1", r.BMI)
	}
	if r.BMIClass != "Overweight" {
		t.Errorf("BMIClass = %q, want Overweight", r.BMIClass)
	}
	if r.BMR != 1749 {
		t.Errorf("BMR = %d, want 1749", r.BMR)
	}
	if r.TDEE != 2711 {
		t.Errorf("TDEE = %d, want 2711", r.TDEE)
	}
	if r.CalorieTarget != 2211 {
		t.Errorf("CalorieTarget = %d, want 2211", r.CalorieTarget)
	}
	if r.Breakdown.Breakfast != 442 || r.Breakdown.Lunch != 884 || r.Breakdown.Dinner != 884 {
		t.Errorf("Breakdown = %+v, want 442/884/884", r.Breakdown)
	}
	sum := r.Breakdown.Breakfast + r.Breakdown.Lunch + r.Breakdown.Dinner
	if diff := sum - r.CalorieTarget; diff < -3 || diff > 3 {
		t.Errorf("breakdown sum %d too far from target %d", sum, r.CalorieTarget)
	}
	if r.DietType != catalog.DietWeightLoss {
		t.Errorf("DietType = %q, want %q", r.DietType, catalog.DietWeightLoss)
	}

	if len(r.Meals["breakfast"]) != 1 || len(r.Meals["lunch"]) != 1 || len(r.Meals["dinner"]) != 1 {
		t.Errorf("unexpected bucket contents: %+v", r.Meals)
	}
	if len(history.inserted) != 1 {
		t.Fatalf("expected 1 saved plan, got %d", len(history.inserted))
	}
}

func TestPlanQueriesEveryBucketWithKcalWindow(t *testing.T) {
	selector := &fakeSelector{}
	planner := newTestPlanner(selector, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})

	_, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if len(selector.calls) != 3 {
		t.Fatalf("expected 3 bucket queries, got %d", len(selector.calls))
	}
	byBucket := map[string]selectorCall{}
	for _, call := range selector.calls {
		byBucket[call.mealTime] = call
		if call.dietType != catalog.DietWeightLoss {
			t.Errorf("bucket %s queried diet %q", call.mealTime, call.dietType)
		}
		if call.limit != 10 {
			t.Errorf("bucket %s queried limit %d, want 10", call.mealTime, call.limit)
		}
	}

	// Breakfast budget 442: window is +-15% rounded.
	breakfast := byBucket["breakfast"]
	if breakfast.minKcal != 376 || breakfast.maxKcal != 508 {
		t.Errorf("breakfast window = [%d, %d], want [376, 508]", breakfast.minKcal, breakfast.maxKcal)
	}
}

func TestPlanBMIClassification(t *testing.T) {
	cases := []struct {
		height, weight float64
		wantBMI        float64
		wantClass      string
	}{
		{170, 50, 17.3, "Underweight"},
		{170, 65, 22.5, "Normal"},
		{170, 80, 27.7, "Overweight"},
		{170, 90, 31.1, "Obesity"},
		{170, 95, 32.9, "Obesity"},
	}

	for _, tc := range cases {
		planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})
		got, err := planner.Plan(context.Background(), premiumUser("female", 28), PlanRequest{
			HeightCm: tc.height, WeightKg: tc.weight, ActivityLevel: "sedentary", Goal: "maintain",
		})
		if err != nil {
			t.Fatalf("Plan(%v kg): %v", tc.weight, err)
		}
		if got.Result.BMI != tc.wantBMI {
			t.Errorf("BMI(%v, %v) = %v, want %v", tc.height, tc.weight, got.Result.BMI, tc.wantBMI)
		}
		if got.Result.BMIClass != tc.wantClass {
			t.Errorf("class(%v) = %q, want %q", got.Result.BMI, got.Result.BMIClass, tc.wantClass)
		}
	}
}

func TestPlanCalorieFloor(t *testing.T) {
	planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})

	got, err := planner.Plan(context.Background(), premiumUser("female", 25), PlanRequest{
		HeightCm: 140, WeightKg: 40, ActivityLevel: "sedentary", Goal: "lose",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if got.Result.CalorieTarget != 1200 {
		t.Errorf("CalorieTarget = %d, want floor 1200", got.Result.CalorieTarget)
	}
}

func TestPlanDefaultAgeWithoutBirthDate(t *testing.T) {
	planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})

	usr := &user.User{ID: primitive.NewObjectID(), Gender: "male"}
	got, err := planner.Plan(context.Background(), usr, PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "maintain",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// Age defaults to 25: BMR = 800 + 1093.75 - 125 + 5.
	if got.Result.BMR != 1774 {
		t.Errorf("BMR = %d, want 1774 with default age", got.Result.BMR)
	}
}

func TestPlanNormalizesTokens(t *testing.T) {
	planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})

	got, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: " Moderate ", Goal: "LOSE",
	})
	if err != nil {
		t.Fatalf("Plan rejected differently-cased tokens: %v", err)
	}
	if got.Result.DietType != catalog.DietWeightLoss {
		t.Errorf("DietType = %q, want %q", got.Result.DietType, catalog.DietWeightLoss)
	}
	if got.Input.ActivityLevel != "moderate" || got.Input.Goal != "lose" {
		t.Errorf("stored input not normalized: %+v", got.Input)
	}
}

func TestPlanValidationBeforeEntitlement(t *testing.T) {
	selector := &fakeSelector{}
	entitlement := &fakeEntitlement{active: true}
	planner := newTestPlanner(selector, &fakeHistory{}, entitlement, &fakeNotifier{})

	_, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "extreme", Goal: "lose",
	})
	if !common.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if entitlement.calls != 0 {
		t.Errorf("entitlement consulted before validation: %d calls", entitlement.calls)
	}
	if len(selector.calls) != 0 {
		t.Errorf("meals queried despite invalid request: %d calls", len(selector.calls))
	}
}

func TestPlanRequiresPremium(t *testing.T) {
	planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: false}, &fakeNotifier{})

	_, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	if !errors.Is(err, common.ErrPaymentRequired) {
		t.Fatalf("expected payment required, got %v", err)
	}
}

func TestPlanRequiresUser(t *testing.T) {
	planner := newTestPlanner(&fakeSelector{}, &fakeHistory{}, &fakeEntitlement{active: true}, &fakeNotifier{})

	_, err := planner.Plan(context.Background(), nil, PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	if !errors.Is(err, common.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestPlanSurvivesHistoryFailure(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	planner := newTestPlanner(&fakeSelector{}, history, &fakeEntitlement{active: true}, notifier)

	got, err := planner.Plan(context.Background(), premiumUser("male", 30), PlanRequest{
		HeightCm: 175, WeightKg: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	if err != nil {
		t.Fatalf("Plan should survive a failed save, got %v", err)
	}
	if got == nil || got.Result.CalorieTarget == 0 {
		t.Fatal("expected a computed plan despite the failed save")
	}
	if notifier.calls != 0 {
		t.Errorf("notification sent for an unsaved plan")
	}
}
