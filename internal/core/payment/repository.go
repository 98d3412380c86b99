package payment

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

// Repository persists payments.
type Repository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewRepository creates a payment repository.
func NewRepository(db *mongodb.MongoDB, log *zap.Logger) *Repository {
	return &Repository{
		coll: db.Collection("payments"),
		log:  log.Named("payment-repository"),
	}
}

// Create inserts a payment.
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reference == "" {
		p.Reference = common.GenerateUUID()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrCodeConflict, "order code already exists", 409, err)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// FindByOrderCode loads a payment by its gateway order code.
func (r *Repository) FindByOrderCode(ctx context.Context, orderCode int64) (*Payment, error) {
	var p Payment
	err := r.coll.FindOne(ctx, bson.M{"orderCode": orderCode}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("payment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &p, nil
}

// UpdateStatus applies a status change and returns the new document.
func (r *Repository) UpdateStatus(ctx context.Context, orderCode int64, set bson.M) (*Payment, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Payment
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"orderCode": orderCode}, bson.M{"$set": set}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("payment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	return &p, nil
}

// ListByUser returns one page of a user's payments, newest first,
// optionally restricted to one status.
func (r *Repository) ListByUser(ctx context.Context, userID primitive.ObjectID, status string, p common.Pagination) ([]Payment, int64, error) {
	filter := bson.M{"user": userID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(p.Skip).
		SetLimit(p.Limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Payment
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode payments: %w", err)
	}
	return items, total, nil
}

// HasActivePaid reports whether the user holds a paid payment whose
// premium window is still open at the given time.
func (r *Repository) HasActivePaid(ctx context.Context, userID primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"user":      userID,
		"status":    StatusPaid,
		"expiredAt": bson.M{"$gt": now},
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check active payments: %w", err)
	}
	return count > 0, nil
}
