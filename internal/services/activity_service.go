package services

import (
	"context"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityService owns the append-only activity log. Recording is
// deliberately decoupled from the shelf store so feed rendering never has
// to reconstruct history from shelf diffs.
type ActivityService struct {
	repo  ActivityStore
	users UserStore
}

func NewActivityService(repo ActivityStore, users UserStore) *ActivityService {
	return &ActivityService{repo: repo, users: users}
}

// Record appends one activity entry. The book fields are snapshots copied
// at record time; later edits to the shelf entry never change them. Fails
// only on storage error, which callers treat as non-fatal.
func (s *ActivityService) Record(ctx context.Context, activity *models.Activity) error {
	activity.CreatedAt = time.Now()
	activity.IsPublic = s.authorIsPublic(ctx, activity.UserID)

	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": activity.UserID.Hex(),
			"type":    activity.Type,
		}).Error("Failed to record activity")
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": activity.UserID.Hex(),
		"type":    activity.Type,
	}).Info("Activity recorded")
	return nil
}

// authorIsPublic resolves the convenience flag stored on the entry.
// Read-time scoping still consults the live profile; on lookup failure the
// entry defaults to public.
func (s *ActivityService) authorIsPublic(ctx context.Context, userID primitive.ObjectID) bool {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return true
	}
	return !user.IsPrivate
}

// GetRecentActivities returns a user's own recent actions, newest first.
func (s *ActivityService) GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error) {
	return s.repo.GetUserActivities(ctx, userID, limit)
}

// DeleteReviewActivities purges reviewed_book entries for a key. The
// activity log is a projection of things worth showing, not an audit
// trail, so deleting a review deletes its history too.
func (s *ActivityService) DeleteReviewActivities(ctx context.Context, userID primitive.ObjectID, bookKey string) error {
	return s.repo.DeleteReviewActivities(ctx, userID, bookKey)
}
