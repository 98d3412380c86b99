package catalog

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

	"meal-planner-api/internal/infrastructure/mongodb"
	"meal-planner-api/internal/pkg/common"
)

// candidateFetchCap bounds unfiltered candidate queries; scoring happens
// in memory over the fetched slice.
const candidateFetchCap = 500

// MealRepository handles persistence for catalog meals.
type MealRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewMealRepository creates a meal repository.
func NewMealRepository(db *mongodb.MongoDB, log *zap.Logger) *MealRepository {
	return &MealRepository{
		coll: db.Collection("meals"),
		log:  log.Named("meal-repository"),
	}
}

// List returns one page of meals plus the total count.
func (r *MealRepository) List(ctx context.Context, p common.Pagination) ([]Meal, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count meals: %w", err)
	}

	cursor, err := r.coll.Find(ctx, bson.M{}, optionsFindPage(p))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find meals: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Meal
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode meals: %w", err)
	}
	return items, total, nil
}

// FindByID returns the meal with the given id.
func (r *MealRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Meal, error) {
	var item Meal
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("meal")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meal: %w", err)
	}
	return &item, nil
}

// ingredientRefForms expands canonical id strings into every stored
// representation: plain string and, where the id is valid hex, its
// ObjectID form. Meal records are inconsistent about which they hold.
func ingredientRefForms(ids []string) []interface{} {
	forms := make([]interface{}, 0, len(ids)*2)
	for _, id := range ids {
		forms = append(forms, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			forms = append(forms, oid)
		}
	}
	return forms
}

// FindCandidates returns meals whose ingredient set intersects the given
// canonical id set, optionally restricted to a diet type. An empty id
// set means no ingredient restriction.
func (r *MealRepository) FindCandidates(ctx context.Context, ingredientIDs []string, dietType string) ([]Meal, error) {
	filter := bson.M{}
	if len(ingredientIDs) > 0 {
		filter["ingredients"] = bson.M{"$in": ingredientRefForms(ingredientIDs)}
	}
	if dietType != "" {
		filter["dietType"] = dietType
	}

	opts := options.Find().SetLimit(candidateFetchCap)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate meals: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Meal
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode candidate meals: %w", err)
	}
	return items, nil
}

// FindForMealTime returns up to limit meals for one meal-time bucket,
// restricted to a diet type and a kcal window, best rated first.
func (r *MealRepository) FindForMealTime(ctx context.Context, mealTime, dietType string, minKcal, maxKcal int, limit int64) ([]MealSummary, error) {
	filter := bson.M{
		"mealTime":  mealTime,
		"dietType":  dietType,
		"totalKcal": bson.M{"$gte": minKcal, "$lte": maxKcal},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{
			"name": 1, "image": 1, "totalKcal": 1,
			"dietType": 1, "mealTime": 1, "rating": 1,
		})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find meals for %s: %w", mealTime, err)
	}
	defer cursor.Close(ctx)

	var items []MealSummary
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode meals for %s: %w", mealTime, err)
	}
	return items, nil
}

// Create inserts a meal after invariant validation.
func (r *MealRepository) Create(ctx context.Context, meal *Meal) error {
	if err := meal.Validate(); err != nil {
		return err
	}
	now := time.Now()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	if meal.ID.IsZero() {
		meal.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, meal); err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}
	r.log.Info("meal created", zap.String("id", meal.ID.Hex()), zap.String("name", meal.Name))
	return nil
}

// Update applies a partial update and returns the new document.
func (r *MealRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*Meal, error) {
	update["updatedAt"] = time.Now()
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		findOneAndUpdateAfter(),
	)
	var item Meal
	err := res.Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("meal")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return &item, nil
}

// Delete removes a meal.
func (r *MealRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.NewNotFoundError("meal")
	}
	return nil
}

func optionsFindPage(p common.Pagination) *options.FindOptions {
	return options.Find().SetSkip(p.Skip).SetLimit(p.Limit)
}

func findOneAndUpdateAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
