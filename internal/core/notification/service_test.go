package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/plan"
	"meal-planner-api/internal/pkg/common"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []*Notification
}

func (f *fakeStore) Insert(_ context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, n)
	return nil
}

func (f *fakeStore) ListByUser(context.Context, primitive.ObjectID, common.Pagination, bool) ([]Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeStore) MarkRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (f *fakeStore) MarkAllRead(context.Context, primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Delete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func (f *fakeStore) last() *Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inserted) == 0 {
		return nil
	}
	return f.inserted[len(f.inserted)-1]
}

type fakePlanHistory struct {
	plans []plan.MealPlan
	err   error
}

func (f *fakePlanHistory) FindSince(context.Context, primitive.ObjectID, time.Time) ([]plan.MealPlan, error) {
	return f.plans, f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestCreateWeeklySummary(t *testing.T) {
	store := &fakeStore{}
	history := &fakePlanHistory{plans: []plan.MealPlan{
		{Result: plan.Result{CalorieTarget: 2000}},
		{Result: plan.Result{CalorieTarget: 2200}},
		{Result: plan.Result{CalorieTarget: 1800}},
	}}
	svc := NewService(store, history, zap.NewNop())

	n, err := svc.CreateWeeklySummary(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("CreateWeeklySummary: %v", err)
	}
	if n.Type != TypeWeeklyKcalReport {
		t.Errorf("type = %q, want %q", n.Type, TypeWeeklyKcalReport)
	}
	if !strings.Contains(n.Message, "3 meal plan(s)") {
		t.Errorf("message missing plan count: %q", n.Message)
	}
	if !strings.Contains(n.Message, "2000 kcal") {
		t.Errorf("message missing average: %q", n.Message)
	}
	if store.count() != 1 {
		t.Errorf("expected 1 stored notification, got %d", store.count())
	}
}

func TestCreateWeeklySummaryWithoutPlans(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakePlanHistory{}, zap.NewNop())

	_, err := svc.CreateWeeklySummary(context.Background(), primitive.NewObjectID())
	var ce *common.CustomError
	if !errors.As(err, &ce) || ce.Code != common.ErrCodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestPlanCreatedDeliversDetached(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakePlanHistory{}, zap.NewNop())

	userID := primitive.NewObjectID()
	svc.PlanCreated(context.Background(), userID, &plan.MealPlan{
		Result: plan.Result{DietType: "WeightLoss", CalorieTarget: 2211},
	})

	waitFor(t, func() bool { return store.count() == 1 })
	n := store.last()
	if n.Type != TypeMealPlanCreated || n.UserID != userID {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestPremiumActivatedDeliversDetached(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakePlanHistory{}, zap.NewNop())

	svc.PremiumActivated(context.Background(), primitive.NewObjectID(), "monthly", time.Now().Add(33*24*time.Hour))

	waitFor(t, func() bool { return store.count() == 1 })
	if n := store.last(); n.Type != TypePremiumSuccess {
		t.Errorf("type = %q, want %q", n.Type, TypePremiumSuccess)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakePlanHistory{}, zap.NewNop())

	if _, err := svc.Create(context.Background(), primitive.NewObjectID(), "", "body"); !common.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
