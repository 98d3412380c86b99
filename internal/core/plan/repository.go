package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/catalog"
	"meal-planner-api/internal/infrastructure/mongodb"
	"meal-planner-api/internal/pkg/common"
)

// Input records the body metrics a plan was computed from.
type Input struct {
	HeightCm      float64 `bson:"heightCm" json:"heightCm"`
	WeightKg      float64 `bson:"weightKg" json:"weightKg"`
	ActivityLevel string  `bson:"activityLevel" json:"activityLevel"`
	Goal          string  `bson:"goal" json:"goal"`
}

// Breakdown splits the calorie target across meal-time buckets.
type Breakdown struct {
	Breakfast int `bson:"breakfast" json:"breakfast"`
	Lunch     int `bson:"lunch" json:"lunch"`
	Dinner    int `bson:"dinner" json:"dinner"`
}

// Result holds the derived numbers and the suggested meals per bucket.
type Result struct {
	BMI           float64                          `bson:"bmi" json:"bmi"`
	BMIClass      string                           `bson:"bmiClass" json:"bmiClass"`
	BMR           int                              `bson:"bmr" json:"bmr"`
	TDEE          int                              `bson:"tdee" json:"tdee"`
	CalorieTarget int                              `bson:"calorieTarget" json:"calorieTarget"`
	Breakdown     Breakdown                        `bson:"breakdown" json:"breakdown"`
	DietType      string                           `bson:"dietType" json:"dietType"`
	Meals         map[string][]catalog.MealSummary `bson:"meals" json:"meals"`
}

// MealPlan is one saved planning run.
type MealPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	Input     Input              `bson:"input" json:"input"`
	Result    Result             `bson:"result" json:"result"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// HistoryRepository persists meal plans.
type HistoryRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewHistoryRepository creates a plan history repository.
func NewHistoryRepository(db *mongodb.MongoDB, log *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		coll: db.Collection("mealplans"),
		log:  log.Named("plan-history"),
	}
}

// Insert saves a plan.
func (r *HistoryRepository) Insert(ctx context.Context, p *MealPlan) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return nil
}

// ListByUser returns one page of a user's plans, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, p common.Pagination) ([]MealPlan, int64, error) {
	filter := bson.M{"user": userID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count meal plans: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(p.Skip).
		SetLimit(p.Limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find meal plans: %w", err)
	}
	defer cursor.Close(ctx)

	var items []MealPlan
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode meal plans: %w", err)
	}
	return items, total, nil
}

// Latest returns the user's most recent plan.
func (r *HistoryRepository) Latest(ctx context.Context, userID primitive.ObjectID) (*MealPlan, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var item MealPlan
	err := r.coll.FindOne(ctx, bson.M{"user": userID}, opts).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("meal plan")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest meal plan: %w", err)
	}
	return &item, nil
}

// FindSince returns a user's plans created at or after the given time,
// oldest first. The weekly summary reads a 7-day window through this.
func (r *HistoryRepository) FindSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]MealPlan, error) {
	filter := bson.M{
		"user":      userID,
		"createdAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find meal plans since %s: %w", since.Format(time.RFC3339), err)
	}
	defer cursor.Close(ctx)

	var items []MealPlan
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode meal plans: %w", err)
	}
	return items, nil
}
