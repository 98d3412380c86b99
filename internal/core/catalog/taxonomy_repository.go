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

// TaxonomyRepository handles categories and sub-categories.
type TaxonomyRepository struct {
	categories    *mongo.Collection
	subCategories *mongo.Collection
	log           *zap.Logger
}

// NewTaxonomyRepository creates a taxonomy repository.
func NewTaxonomyRepository(db *mongodb.MongoDB, log *zap.Logger) *TaxonomyRepository {
	return &TaxonomyRepository{
		categories:    db.Collection("categories"),
		subCategories: db.Collection("subcategories"),
		log:           log.Named("taxonomy-repository"),
	}
}

// ListCategories returns all categories.
func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]Category, error) {
	cursor, err := r.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Category
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return items, nil
}

// ListSubCategories returns all sub-categories, optionally restricted to
// a category.
func (r *TaxonomyRepository) ListSubCategories(ctx context.Context, categoryID *primitive.ObjectID) ([]SubCategory, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["category"] = *categoryID
	}
	cursor, err := r.subCategories.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find sub-categories: %w", err)
	}
	defer cursor.Close(ctx)

	var items []SubCategory
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode sub-categories: %w", err)
	}
	return items, nil
}

// CreateCategory inserts a category.
func (r *TaxonomyRepository) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return common.NewValidationError("category name is required")
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.categories.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrCodeConflict, "category name already exists", 409, err)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// CreateSubCategory inserts a sub-category after checking its parent.
func (r *TaxonomyRepository) CreateSubCategory(ctx context.Context, sc *SubCategory) error {
	if sc.Name == "" {
		return common.NewValidationError("subCategory name is required")
	}
	if err := r.categories.FindOne(ctx, bson.M{"_id": sc.Category}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return common.NewNotFoundError("category")
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	if sc.ID.IsZero() {
		sc.ID = primitive.NewObjectID()
	}
	if _, err := r.subCategories.InsertOne(ctx, sc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrCodeConflict, "subCategory name already exists", 409, err)
		}
		return fmt.Errorf("failed to insert sub-category: %w", err)
	}
	return nil
}

// ResolveCategoryRef accepts a category id or unique name and returns
// its ObjectID.
func (r *TaxonomyRepository) ResolveCategoryRef(ctx context.Context, ref string) (primitive.ObjectID, error) {
	return r.resolveRef(ctx, r.categories, ref, "category")
}

// ResolveSubCategoryRef accepts a sub-category id or unique name and
// returns its ObjectID.
func (r *TaxonomyRepository) ResolveSubCategoryRef(ctx context.Context, ref string) (primitive.ObjectID, error) {
	return r.resolveRef(ctx, r.subCategories, ref, "subCategory")
}

func (r *TaxonomyRepository) resolveRef(ctx context.Context, coll *mongo.Collection, ref, entity string) (primitive.ObjectID, error) {
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		if err := coll.FindOne(ctx, bson.M{"_id": oid}).Err(); err == nil {
			return oid, nil
		}
	}
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := coll.FindOne(ctx, bson.M{"name": ref}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, common.NewNotFoundError(entity + " '" + ref + "'")
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to resolve %s: %w", entity, err)
	}
	return doc.ID, nil
}
