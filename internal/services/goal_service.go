package services

import (
	"context"
	"math"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalService encapsulates the business logic for reading goals. Progress
// is never stored; every read recomputes it from the "read" shelf.
type GoalService struct {
	repo      GoalStore
	libraries LibraryStore
}

func NewGoalService(repo GoalStore, libraries LibraryStore) *GoalService {
	return &GoalService{repo: repo, libraries: libraries}
}

// CreateGoal derives the goal's time window from the timeframe and stores
// it. Timeframe and window are immutable afterwards; changing them means
// creating a new goal.
func (s *GoalService) CreateGoal(ctx context.Context, userID primitive.ObjectID, goalType string, targetValue int, timeframe string) (*models.Goal, error) {
	if goalType != models.GoalTypeBooks && goalType != models.GoalTypePages {
		return nil, apperrors.InvalidArgument("goal type must be %q or %q", models.GoalTypeBooks, models.GoalTypePages)
	}
	if targetValue < 1 {
		return nil, apperrors.InvalidArgument("target value must be at least 1")
	}

	start, end, err := goalWindow(timeframe, time.Now())
	if err != nil {
		return nil, err
	}

	goal := &models.Goal{
		UserID:      userID,
		Type:        goalType,
		TargetValue: targetValue,
		Timeframe:   timeframe,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}

	created, err := s.repo.CreateGoal(ctx, goal)
	if err != nil {
		return nil, apperrors.Internal("failed to create goal", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"goal_id":   created.ID.Hex(),
		"timeframe": timeframe,
	}).Info("Reading goal created")
	return created, nil
}

// goalWindow derives the inclusive [start, end] window for a timeframe.
// Weeks run Sunday through Saturday; month and year follow the calendar;
// all-time uses a fixed wide sentinel range.
func goalWindow(timeframe string, now time.Time) (time.Time, time.Time, error) {
	switch timeframe {
	case models.TimeframeWeek:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 7).Add(-time.Second), nil
	case models.TimeframeMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0).Add(-time.Second), nil
	case models.TimeframeYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0).Add(-time.Second), nil
	case models.TimeframeAllTime:
		start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, apperrors.InvalidArgument("unknown timeframe %q", timeframe)
	}
}

// Progress computes every active goal's standing against the "read" shelf.
// The current value may exceed the target; the percentage never reports
// above 100.
func (s *GoalService) Progress(ctx context.Context, userID primitive.ObjectID) ([]models.GoalProgress, error) {
	goals, err := s.repo.GetGoalsByUser(ctx, userID, true)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch goals", err)
	}

	library, err := s.libraries.GetOrCreateLibrary(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load library", err)
	}
	readShelf := library.Shelves[models.ShelfRead]

	progress := make([]models.GoalProgress, 0, len(goals))
	for _, goal := range goals {
		current := 0
		for i := range readShelf {
			completed := readShelf[i].CompletedAt
			if completed == nil || completed.Before(goal.StartDate) || completed.After(goal.EndDate) {
				continue
			}
			if goal.Type == models.GoalTypePages {
				current += readShelf[i].NumberOfPages
			} else {
				current++
			}
		}

		percent := int(math.Round(float64(current) / float64(goal.TargetValue) * 100))
		if percent > 100 {
			percent = 100
		}
		progress = append(progress, models.GoalProgress{
			Goal:         goal,
			CurrentValue: current,
			Percent:      percent,
		})
	}
	return progress, nil
}

// ListGoals returns all of a user's goals, active or not.
func (s *GoalService) ListGoals(ctx context.Context, userID primitive.ObjectID) ([]models.Goal, error) {
	goals, err := s.repo.GetGoalsByUser(ctx, userID, false)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch goals", err)
	}
	return goals, nil
}

// UpdateGoal changes targetValue and/or isActive on an owned goal. The
// timeframe and window stay fixed to avoid retroactive recomputation.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID primitive.ObjectID, targetValue *int, isActive *bool) (*models.Goal, error) {
	goal, err := s.repo.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, apperrors.NotFound("goal not found")
	}
	if goal.UserID != userID {
		return nil, apperrors.Forbidden("goal belongs to another user")
	}
	if targetValue != nil && *targetValue < 1 {
		return nil, apperrors.InvalidArgument("target value must be at least 1")
	}

	if err := s.repo.UpdateGoal(ctx, goalID, targetValue, isActive); err != nil {
		return nil, apperrors.Internal("failed to update goal", err)
	}

	updated, err := s.repo.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, apperrors.Internal("failed to reload goal", err)
	}
	return updated, nil
}

// DeleteGoal removes an owned goal.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID primitive.ObjectID) error {
	goal, err := s.repo.GetGoalByID(ctx, goalID)
	if err != nil {
		return apperrors.NotFound("goal not found")
	}
	if goal.UserID != userID {
		return apperrors.Forbidden("goal belongs to another user")
	}
	if err := s.repo.DeleteGoal(ctx, goalID); err != nil {
		return apperrors.Internal("failed to delete goal", err)
	}
	return nil
}

// DeactivateExpired retires goals whose window has closed. Called by the
// scheduler; the all-time sentinel range never expires.
func (s *GoalService) DeactivateExpired(ctx context.Context) error {
	count, err := s.repo.DeactivateExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Log.WithField("count", count).Info("Expired goals deactivated")
	}
	return nil
}
