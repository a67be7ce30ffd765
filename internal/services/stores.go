package services

import (
	"context"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store interfaces consumed by the service layer. The concrete Mongo
// repositories satisfy them; tests substitute in-memory fakes.

type LibraryStore interface {
	GetOrCreateLibrary(ctx context.Context, userID primitive.ObjectID) (*models.Library, error)
	UpdateLibrary(ctx context.Context, library *models.Library) error
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	GetActivityByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error)
	GetUserActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error)
	GetActivitiesByUsers(ctx context.Context, userIDs []primitive.ObjectID, limit int) ([]models.Activity, error)
	DeleteReviewActivities(ctx context.Context, userID primitive.ObjectID, bookKey string) error
}

type GoalStore interface {
	CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error)
	GetGoalByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error)
	GetGoalsByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, id primitive.ObjectID, targetValue *int, isActive *bool) error
	DeleteGoal(ctx context.Context, id primitive.ObjectID) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type ChatStore interface {
	FindConversation(ctx context.Context, userA, userB primitive.ObjectID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error)
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	SetLastMessage(ctx context.Context, conversationID primitive.ObjectID, msg *models.Message) error
	GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetPublicUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, username, avatarURL *string, isPrivate *bool) error
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	GetFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type FriendStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestBetween(ctx context.Context, userA, userB primitive.ObjectID) (*models.FriendRequest, error)
	GetRequestsByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, id primitive.ObjectID, status string) error
	DeleteFriendship(ctx context.Context, userA, userB primitive.ObjectID) error
}
