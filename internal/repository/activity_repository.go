package repository

import (
	"context"
	"fmt"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		collection: db.Collection("activities"),
	}
}

// CreateActivity inserts a new activity entry.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	result, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert activity")
		return fmt.Errorf("failed to insert activity: %v", err)
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		activity.ID = insertedID
	}
	return nil
}

// GetActivityByID fetches a single activity entry.
func (r *ActivityRepository) GetActivityByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error) {
	var activity models.Activity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&activity)
	if err != nil {
		return nil, fmt.Errorf("failed to find activity: %v", err)
	}
	return &activity, nil
}

// GetUserActivities fetches recent activities of a single user, newest first.
func (r *ActivityRepository) GetUserActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error) {
	return r.findActivities(ctx, bson.M{"user_id": userID}, limit)
}

// GetActivitiesByUsers fetches recent activities authored by any of the
// given users, newest first. Used by the friends feed.
func (r *ActivityRepository) GetActivitiesByUsers(ctx context.Context, userIDs []primitive.ObjectID, limit int) ([]models.Activity, error) {
	if len(userIDs) == 0 {
		return []models.Activity{}, nil
	}
	return r.findActivities(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, limit)
}

func (r *ActivityRepository) findActivities(ctx context.Context, filter bson.M, limit int) ([]models.Activity, error) {
	sort := bson.D{{Key: "created_at", Value: -1}}
	opts := options.Find().SetSort(sort).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %v", err)
	}
	defer cursor.Close(ctx)

	var activities []models.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %v", err)
	}
	return activities, nil
}

// DeleteReviewActivities purges all reviewed_book entries a user has for a
// given book key. Called when the review itself is deleted so the feed
// stays consistent with current shelf state.
func (r *ActivityRepository) DeleteReviewActivities(ctx context.Context, userID primitive.ObjectID, bookKey string) error {
	filter := bson.M{
		"user_id":  userID,
		"type":     models.ActivityReviewedBook,
		"book.key": bookKey,
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID.Hex(),
			"book_key": bookKey,
		}).Error("Failed to delete review activities")
		return fmt.Errorf("failed to delete review activities: %v", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  userID.Hex(),
		"book_key": bookKey,
		"count":    result.DeletedCount,
	}).Info("Review activities purged")
	return nil
}
