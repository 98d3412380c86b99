package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"meal-planner-api/internal/infrastructure/mongodb"
	"meal-planner-api/internal/pkg/common"
)

// IngredientRepository handles persistence for catalog ingredients.
type IngredientRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewIngredientRepository creates an ingredient repository.
func NewIngredientRepository(db *mongodb.MongoDB, log *zap.Logger) *IngredientRepository {
	return &IngredientRepository{
		coll: db.Collection("ingredients"),
		log:  log.Named("ingredient-repository"),
	}
}

// FindAll returns the full ingredient catalog. The catalog is small and
// the matcher needs one pass over all of it.
func (r *IngredientRepository) FindAll(ctx context.Context) ([]Ingredient, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredients: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Ingredient
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	return items, nil
}

// List returns one page of ingredients plus the total count.
func (r *IngredientRepository) List(ctx context.Context, p common.Pagination) ([]Ingredient, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ingredients: %w", err)
	}

	opts := optionsFindPage(p)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find ingredients: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Ingredient
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	return items, total, nil
}

// FindByID returns the ingredient with the given id.
func (r *IngredientRepository) FindByID(ctx context.Context, id string) (*Ingredient, error) {
	var item Ingredient
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("ingredient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient: %w", err)
	}
	return &item, nil
}

// FindByName returns the ingredient with the given exact name.
func (r *IngredientRepository) FindByName(ctx context.Context, name string) (*Ingredient, error) {
	var item Ingredient
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("ingredient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient: %w", err)
	}
	return &item, nil
}

// ResolveRef accepts an ingredient id or unique name and returns the
// canonical id. Clients reference ingredients both ways.
func (r *IngredientRepository) ResolveRef(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", common.NewValidationError("ingredient reference is empty")
	}
	item, err := r.FindByID(ctx, ref)
	if err == nil {
		return item.ID, nil
	}
	item, err = r.FindByName(ctx, ref)
	if err != nil {
		return "", common.NewNotFoundError("ingredient '" + ref + "'")
	}
	return item.ID, nil
}

// Create inserts a new ingredient. Ids are stored as plain strings.
func (r *IngredientRepository) Create(ctx context.Context, item *Ingredient) error {
	if item.Name == "" || item.Unit == "" || item.Type == "" {
		return common.NewValidationError("name, unit and type are required")
	}
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrCodeConflict, "ingredient name already exists", 409, err)
		}
		return fmt.Errorf("failed to insert ingredient: %w", err)
	}
	r.log.Info("ingredient created", zap.String("id", item.ID), zap.String("name", item.Name))
	return nil
}

// Update replaces mutable fields of an ingredient.
func (r *IngredientRepository) Update(ctx context.Context, id string, update bson.M) (*Ingredient, error) {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		findOneAndUpdateAfter(),
	)
	var item Ingredient
	err := res.Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("ingredient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}
	return &item, nil
}

// Delete removes an ingredient.
func (r *IngredientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.NewNotFoundError("ingredient")
	}
	return nil
}
