package user

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

// Repository persists user accounts.
type Repository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewRepository creates a user repository.
func NewRepository(db *mongodb.MongoDB, log *zap.Logger) *Repository {
	return &Repository{
		coll: db.Collection("users"),
		log:  log.Named("user-repository"),
	}
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// FindByEmail loads a user by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &u, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrCodeConflict, "email or username already registered", 409, err)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial profile update and returns the new
// document.
func (r *Repository) UpdateProfile(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

// SetPremium updates the premium membership fields after a payment.
func (r *Repository) SetPremium(ctx context.Context, id primitive.ObjectID, active bool, expires time.Time, packageType string) error {
	set := bson.M{
		"premiumMembership":        active,
		"premiumMembershipExpires": expires,
		"premiumMembershipType":    packageType,
		"updatedAt":                time.Now(),
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update premium membership: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.NewNotFoundError("user")
	}
	return nil
}
