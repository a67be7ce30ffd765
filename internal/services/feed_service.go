package services

import (
	"context"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultFeedLimit = 50

// ReviewLiker is the slice of the library service the feed needs to
// delegate like toggles.
type ReviewLiker interface {
	ToggleReviewLike(ctx context.Context, likerID, ownerID primitive.ObjectID, bookKey string) (bool, int, error)
}

// FeedItem is one rendered activity. For review activities the like data
// is joined live from the author's current shelf entry, so counts reflect
// current state even though the review text is a historical snapshot.
type FeedItem struct {
	ID               primitive.ObjectID  `json:"id"`
	UserID           primitive.ObjectID  `json:"user_id"`
	Username         string              `json:"username,omitempty"`
	Type             string              `json:"type"`
	Message          string              `json:"message"`
	Book             models.BookSnapshot `json:"book"`
	Rating           int                 `json:"rating,omitempty"`
	Review           string              `json:"review,omitempty"`
	ContainsSpoilers bool                `json:"contains_spoilers,omitempty"`
	LikesCount       int                 `json:"likes_count"`
	IsLikedByViewer  bool                `json:"is_liked_by_viewer"`
	CreatedAt        time.Time           `json:"created_at"`
}

// FeedService composes paginated activity views scoped to friends or to
// all public profiles.
type FeedService struct {
	activities ActivityStore
	users      UserStore
	libraries  LibraryStore
	liker      ReviewLiker
}

func NewFeedService(activities ActivityStore, users UserStore, libraries LibraryStore, liker ReviewLiker) *FeedService {
	return &FeedService{
		activities: activities,
		users:      users,
		libraries:  libraries,
		liker:      liker,
	}
}

// FriendsFeed returns recent activity from the viewer's accepted friends.
func (s *FeedService) FriendsFeed(ctx context.Context, viewerID primitive.ObjectID, limit int) ([]FeedItem, error) {
	friendIDs, err := s.users.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve friends", err)
	}
	if len(friendIDs) == 0 {
		return []FeedItem{}, nil
	}
	return s.compose(ctx, viewerID, friendIDs, limit)
}

// PublicFeed returns recent activity from users with public profiles.
func (s *FeedService) PublicFeed(ctx context.Context, viewerID primitive.ObjectID, limit int) ([]FeedItem, error) {
	authorIDs, err := s.users.GetPublicUserIDs(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve public profiles", err)
	}
	if len(authorIDs) == 0 {
		return []FeedItem{}, nil
	}
	return s.compose(ctx, viewerID, authorIDs, limit)
}

func (s *FeedService) compose(ctx context.Context, viewerID primitive.ObjectID, authorIDs []primitive.ObjectID, limit int) ([]FeedItem, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	activities, err := s.activities.GetActivitiesByUsers(ctx, authorIDs, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch activities", err)
	}

	usernames := s.usernamesFor(ctx, activities)

	items := make([]FeedItem, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		item := FeedItem{
			ID:               a.ID,
			UserID:           a.UserID,
			Username:         usernames[a.UserID],
			Type:             a.Type,
			Message:          FormatActivity(a),
			Book:             a.Book,
			Rating:           a.Rating,
			Review:           a.Review,
			ContainsSpoilers: a.ContainsSpoilers,
			CreatedAt:        a.CreatedAt,
		}
		if a.Type == models.ActivityReviewedBook {
			item.LikesCount, item.IsLikedByViewer = s.liveLikes(ctx, a.UserID, a.Book.Key, viewerID)
		}
		items = append(items, item)
	}
	return items, nil
}

// liveLikes joins back to the author's current shelf entry for the like
// set. Join failures degrade to zero likes rather than failing the feed.
func (s *FeedService) liveLikes(ctx context.Context, authorID primitive.ObjectID, bookKey string, viewerID primitive.ObjectID) (int, bool) {
	library, err := s.libraries.GetOrCreateLibrary(ctx, authorID)
	if err != nil {
		logger.Log.WithError(err).WithField("author_id", authorID.Hex()).Warn("Feed like join failed")
		return 0, false
	}

	shelf, idx, ok := library.FindEntry(bookKey)
	if !ok {
		return 0, false
	}
	entry := library.Entry(shelf, idx)

	liked := false
	for _, id := range entry.ReviewLikes {
		if id == viewerID {
			liked = true
			break
		}
	}
	return len(entry.ReviewLikes), liked
}

func (s *FeedService) usernamesFor(ctx context.Context, activities []models.Activity) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for i := range activities {
		if _, ok := seen[activities[i].UserID]; ok {
			continue
		}
		seen[activities[i].UserID] = struct{}{}
		ids = append(ids, activities[i].UserID)
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		logger.Log.WithError(err).Warn("Feed username join failed")
		return names
	}
	for i := range users {
		names[users[i].ID] = users[i].Username
	}
	return names
}

// ToggleLike likes or unlikes the review behind a feed item. Only review
// activities can be liked, and never one's own.
func (s *FeedService) ToggleLike(ctx context.Context, viewerID, activityID primitive.ObjectID) (liked bool, likes int, err error) {
	activity, err := s.activities.GetActivityByID(ctx, activityID)
	if err != nil {
		return false, 0, apperrors.NotFound("activity not found")
	}
	if activity.Type != models.ActivityReviewedBook {
		return false, 0, apperrors.InvalidArgument("only review activities can be liked")
	}
	return s.liker.ToggleReviewLike(ctx, viewerID, activity.UserID, activity.Book.Key)
}
