package services

import (
	"context"
	"fmt"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/email"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendService handles business logic for managing friendships. Accepted
// friendships scope the friends feed.
type FriendService struct {
	friendRepo FriendStore
	userRepo   UserStore
}

func NewFriendService(friendRepo FriendStore, userRepo UserStore) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// SendFriendRequest creates a new friend request. Duplicate requests
// between the same pair, in either direction, are a conflict.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperrors.Forbidden("cannot send a friend request to yourself")
	}

	existing, err := s.friendRepo.GetRequestBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing requests", err)
	}
	if existing != nil {
		if existing.Status == models.FriendStatusAccepted {
			return nil, apperrors.Conflict("users are already friends")
		}
		return nil, apperrors.Conflict("friend request already pending")
	}

	request, err := s.friendRepo.CreateRequest(ctx, &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to send friend request", err)
	}

	s.notifyReceiver(ctx, senderID, receiverID)
	return request, nil
}

// notifyReceiver emails the receiver about the new request. Delivery is
// fire-and-forget; failures are logged only.
func (s *FriendService) notifyReceiver(ctx context.Context, senderID, receiverID primitive.ObjectID) {
	sender, err := s.userRepo.GetUserByID(ctx, senderID)
	if err != nil {
		return
	}
	receiver, err := s.userRepo.GetUserByID(ctx, receiverID)
	if err != nil {
		return
	}

	go func() {
		body := fmt.Sprintf("%s wants to be your friend on Bookden. Log in to respond.", sender.Username)
		if err := email.SendEmail(receiver.Email, "New friend request", body); err != nil {
			logger.Log.WithError(err).Warn("Failed to send friend request email")
		}
	}()
}

// GetPendingRequests fetches all pending requests addressed to a user.
func (s *FriendService) GetPendingRequests(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.friendRepo.GetRequestsByReceiver(ctx, receiverID)
}

// RespondToRequest accepts or rejects a pending request. Only the receiver
// may respond; accepting links both users' friend lists.
func (s *FriendService) RespondToRequest(ctx context.Context, requestID, responderID primitive.ObjectID, accept bool) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return apperrors.NotFound("friend request not found")
	}
	if request.ReceiverID != responderID {
		return apperrors.Forbidden("only the receiver can respond to a request")
	}
	if request.Status != models.FriendStatusPending {
		return apperrors.Conflict("request already responded to")
	}

	status := models.FriendStatusRejected
	if accept {
		status = models.FriendStatusAccepted
	}
	if err := s.friendRepo.UpdateRequestStatus(ctx, requestID, status); err != nil {
		return apperrors.Internal("failed to update request", err)
	}

	if accept {
		if err := s.userRepo.AddFriend(ctx, request.SenderID, request.ReceiverID); err != nil {
			return apperrors.Internal("failed to link sender's friend list", err)
		}
		if err := s.userRepo.AddFriend(ctx, request.ReceiverID, request.SenderID); err != nil {
			return apperrors.Internal("failed to link receiver's friend list", err)
		}
	}
	return nil
}

// GetFriends resolves a user's accepted friends into public profiles.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	friendIDs, err := s.userRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to get friend list", err)
	}
	if len(friendIDs) == 0 {
		return []models.PublicUser{}, nil
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, friendIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to load friends", err)
	}

	friends := make([]models.PublicUser, 0, len(users))
	for i := range users {
		friends = append(friends, models.PublicUser{
			ID:        users[i].ID,
			Username:  users[i].Username,
			AvatarURL: users[i].AvatarURL,
		})
	}
	return friends, nil
}

// RemoveFriend unlinks both users and clears the accepted request so a
// future request can be sent again.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if err := s.userRepo.RemoveFriend(ctx, userID, friendID); err != nil {
		return apperrors.Internal("failed to remove friend", err)
	}
	if err := s.userRepo.RemoveFriend(ctx, friendID, userID); err != nil {
		return apperrors.Internal("failed to remove friend", err)
	}
	if err := s.friendRepo.DeleteFriendship(ctx, userID, friendID); err != nil {
		return apperrors.Internal("failed to clear friendship record", err)
	}
	return nil
}
