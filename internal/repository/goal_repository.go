package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GoalRepository struct handles database operations related to reading goals.
type GoalRepository struct {
	collection *mongo.Collection
}

// NewGoalRepository creates a new instance of GoalRepository.
func NewGoalRepository(db *mongo.Database) *GoalRepository {
	return &GoalRepository{
		collection: db.Collection("goals"),
	}
}

// CreateGoal inserts a new reading goal.
func (r *GoalRepository) CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert goal")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	goal.ID = insertedID

	logger.Log.WithField("goal_id", goal.ID.Hex()).Info("Goal created successfully")
	return goal, nil
}

// GetGoalByID fetches a goal by its ID.
func (r *GoalRepository) GetGoalByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error) {
	var goal models.Goal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", id.Hex()).Warn("Failed to find goal by ID")
		return nil, err
	}
	return &goal, nil
}

// GetGoalsByUser fetches a user's goals, optionally only active ones.
func (r *GoalRepository) GetGoalsByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Goal, error) {
	filter := bson.M{"user_id": userID}
	if activeOnly {
		filter["is_active"] = true
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch goals")
		return nil, err
	}
	defer cursor.Close(ctx)

	var goals []models.Goal
	if err := cursor.All(ctx, &goals); err != nil {
		logger.Log.WithError(err).Error("Failed to decode goals")
		return nil, err
	}
	return goals, nil
}

// UpdateGoal sets the mutable fields of a goal. Timeframe and dates are
// immutable after creation.
func (r *GoalRepository) UpdateGoal(ctx context.Context, id primitive.ObjectID, targetValue *int, isActive *bool) error {
	set := bson.M{"updated_at": time.Now()}
	if targetValue != nil {
		set["target_value"] = *targetValue
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", id.Hex()).Error("Failed to update goal")
		return err
	}

	logger.Log.WithField("goal_id", id.Hex()).Info("Goal updated successfully")
	return nil
}

// DeleteGoal deletes a goal from the database by its ID.
func (r *GoalRepository) DeleteGoal(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", id.Hex()).Error("Failed to delete goal")
		return err
	}

	logger.Log.WithField("goal_id", id.Hex()).Info("Goal deleted successfully")
	return nil
}

// DeactivateExpired flips is_active off for goals whose window has closed.
// Run periodically by the scheduler.
func (r *GoalRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"is_active": true,
		"end_date":  bson.M{"$lt": now},
	}
	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": now}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to deactivate expired goals")
		return 0, err
	}
	return result.ModifiedCount, nil
}
