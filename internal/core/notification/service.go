package notification

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/plan"
	"meal-planner-api/internal/pkg/common"
)

// deliveryTimeout bounds the detached writes used for fire-and-forget
// notifications.
const deliveryTimeout = 5 * time.Second

// weeklyWindow is the look-back period of the calorie summary.
const weeklyWindow = 7 * 24 * time.Hour

// PlanHistory is the slice of plan storage the weekly summary needs.
type PlanHistory interface {
	FindSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]plan.MealPlan, error)
}

// Store is the persistence surface the service needs, implemented by
// Repository.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, p common.Pagination, unreadOnly bool) ([]Notification, int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// Service creates, lists and manages notifications.
type Service struct {
	repo  Store
	plans PlanHistory
	log   *zap.Logger
}

// NewService creates a notification service.
func NewService(repo Store, plans PlanHistory, log *zap.Logger) *Service {
	return &Service{repo: repo, plans: plans, log: log.Named("notification-service")}
}

// Create saves a generic notification after validating ownership fields.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, title, message string) (*Notification, error) {
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}
	n := &Notification{
		UserID:  userID,
		Type:    TypeGeneric,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns one page of the user's notifications.
func (s *Service) List(ctx context.Context, userID primitive.ObjectID, p common.Pagination, unreadOnly bool) ([]Notification, int64, error) {
	return s.repo.ListByUser(ctx, userID, p, unreadOnly)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead flags all the user's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.repo.Delete(ctx, id, userID)
}

// CreateWeeklySummary summarizes the user's plans over the last 7 days
// into a notification. With no plans in the window there is nothing to
// summarize and the caller gets a not-found error.
func (s *Service) CreateWeeklySummary(ctx context.Context, userID primitive.ObjectID) (*Notification, error) {
	since := time.Now().Add(-weeklyWindow)
	plans, err := s.plans.FindSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, common.NewNotFoundError("meal plans in the last 7 days")
	}

	totalKcal := 0
	for _, p := range plans {
		totalKcal += p.Result.CalorieTarget
	}
	avgKcal := totalKcal / len(plans)

	n := &Notification{
		UserID: userID,
		Type:   TypeWeeklyKcalReport,
		Title:  "Your weekly calorie summary",
		Message: fmt.Sprintf("You created %d meal plan(s) this week with an average target of %d kcal/day.",
			len(plans), avgKcal),
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// PlanCreated delivers the plan-created notification without failing the
// planning request: the write runs detached and errors are only logged.
func (s *Service) PlanCreated(_ context.Context, userID primitive.ObjectID, p *plan.MealPlan) {
	message := fmt.Sprintf("Your %s plan is ready: %d kcal/day target.",
		p.Result.DietType, p.Result.CalorieTarget)
	s.deliver(&Notification{
		UserID:  userID,
		Type:    TypeMealPlanCreated,
		Title:   "New meal plan created",
		Message: message,
	})
}

// PremiumActivated delivers the premium-activation notification, also
// detached.
func (s *Service) PremiumActivated(_ context.Context, userID primitive.ObjectID, packageType string, expires time.Time) {
	message := fmt.Sprintf("Your %s premium package is active until %s.",
		packageType, expires.Format("2006-01-02"))
	s.deliver(&Notification{
		UserID:  userID,
		Type:    TypePremiumSuccess,
		Title:   "Premium activated",
		Message: message,
	})
}

func (s *Service) deliver(n *Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := s.repo.Insert(ctx, n); err != nil {
			s.log.Error("failed to deliver notification",
				zap.Error(err),
				zap.String("type", n.Type),
				zap.String("user_id", n.UserID.Hex()),
			)
		}
	}()
}
