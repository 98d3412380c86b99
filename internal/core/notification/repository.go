package notification

import (
	"context"
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

// Repository persists notifications.
type Repository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewRepository creates a notification repository.
func NewRepository(db *mongodb.MongoDB, log *zap.Logger) *Repository {
	return &Repository{
		coll: db.Collection("notifications"),
		log:  log.Named("notification-repository"),
	}
}

// Insert saves a notification.
func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListByUser returns one page of a user's notifications, newest first,
// optionally restricted to unread ones.
func (r *Repository) ListByUser(ctx context.Context, userID primitive.ObjectID, p common.Pagination, unreadOnly bool) ([]Notification, int64, error) {
	filter := bson.M{"user": userID}
	if unreadOnly {
		filter["read"] = false
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(p.Skip).
		SetLimit(p.Limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Notification
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.NewNotFoundError("notification")
	}
	return nil
}

// MarkAllRead flags all of the user's notifications as read and returns
// how many changed.
func (r *Repository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// Delete removes one of the user's notifications.
func (r *Repository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.NewNotFoundError("notification")
	}
	return nil
}
