package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LibraryRepository handles database operations on per-user libraries.
type LibraryRepository struct {
	collection *mongo.Collection
}

// NewLibraryRepository creates a new instance of LibraryRepository.
func NewLibraryRepository(db *mongo.Database) *LibraryRepository {
	return &LibraryRepository{
		collection: db.Collection("libraries"),
	}
}

// GetOrCreateLibrary fetches a user's library, creating the empty
// five-shelf document on first access.
func (r *LibraryRepository) GetOrCreateLibrary(ctx context.Context, userID primitive.ObjectID) (*models.Library, error) {
	var library models.Library
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&library)
	if err == nil {
		ensureShelves(&library)
		return &library, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch library")
		return nil, fmt.Errorf("failed to fetch library: %v", err)
	}

	fresh := models.NewLibrary(userID)
	result, err := r.collection.InsertOne(ctx, fresh)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to create library")
		return nil, fmt.Errorf("failed to create library: %v", err)
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		fresh.ID = insertedID
	}

	logger.Log.WithField("user_id", userID.Hex()).Info("Library created lazily")
	return fresh, nil
}

// UpdateLibrary persists the full shelf state of a library.
func (r *LibraryRepository) UpdateLibrary(ctx context.Context, library *models.Library) error {
	library.UpdatedAt = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": library.ID},
		bson.M{"$set": bson.M{
			"shelves":    library.Shelves,
			"updated_at": library.UpdatedAt,
		}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", library.UserID.Hex()).Error("Failed to update library")
		return fmt.Errorf("failed to update library: %v", err)
	}
	return nil
}

// Older documents may predate a shelf being added; make sure every shelf
// key exists so callers can index freely.
func ensureShelves(library *models.Library) {
	if library.Shelves == nil {
		library.Shelves = make(map[string][]models.BookEntry, len(models.ShelfNames))
	}
	for _, name := range models.ShelfNames {
		if library.Shelves[name] == nil {
			library.Shelves[name] = []models.BookEntry{}
		}
	}
}
