package services

import (
	"context"
	"strings"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService owns durable conversation and message state. Live delivery
// is the presence channel's job; the store here is always the source of
// truth, so a failed push never loses a message.
type ChatService struct {
	repo ChatStore
}

func NewChatService(repo ChatStore) *ChatService {
	return &ChatService{repo: repo}
}

// GetOrCreateConversation finds the conversation between two users,
// creating it on first contact. Exactly two participants, always.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, userA, userB primitive.ObjectID) (*models.Conversation, error) {
	if userA == userB {
		return nil, apperrors.InvalidArgument("cannot start a conversation with yourself")
	}

	conv, err := s.repo.FindConversation(ctx, userA, userB)
	if err != nil {
		return nil, apperrors.Internal("failed to look up conversation", err)
	}
	if conv != nil {
		return conv, nil
	}

	created, err := s.repo.CreateConversation(ctx, &models.Conversation{
		Participants: []primitive.ObjectID{userA, userB},
	})
	if err != nil {
		return nil, apperrors.Internal("failed to create conversation", err)
	}

	logger.Log.WithField("conversation_id", created.ID.Hex()).Info("Conversation created")
	return created, nil
}

// SendMessage validates and durably persists a message, then denormalizes
// it onto the conversation for inbox ordering. Pushing to a connected
// recipient is the caller's follow-up step and is best-effort only.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID primitive.ObjectID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidArgument("message content must not be empty")
	}
	if len(content) > models.MaxMessageLength {
		return nil, apperrors.InvalidArgument("message content exceeds %d characters", models.MaxMessageLength)
	}

	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(senderID) {
		return nil, apperrors.Forbidden("sender is not part of this conversation")
	}

	recipient, _ := conv.Other(senderID)
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipient,
		Content:        content,
		Read:           false,
	}

	saved, err := s.repo.InsertMessage(ctx, msg)
	if err != nil {
		return nil, apperrors.Internal("failed to persist message", err)
	}

	if err := s.repo.SetLastMessage(ctx, conversationID, saved); err != nil {
		// The durable message exists; a stale inbox preview is tolerable.
		logger.Log.WithError(err).WithField("conversation_id", conversationID.Hex()).Warn("Failed to update conversation preview")
	}
	return saved, nil
}

// MarkRead flips every unread message addressed to the reader in one
// conversation. Other conversations are untouched.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID primitive.ObjectID) (int64, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return 0, apperrors.Internal("failed to fetch conversation", err)
	}
	if conv == nil {
		return 0, apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(readerID) {
		return 0, apperrors.Forbidden("reader is not part of this conversation")
	}

	count, err := s.repo.MarkMessagesRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, apperrors.Internal("failed to mark messages read", err)
	}
	return count, nil
}

// UnreadCount returns the user's unread total across all conversations.
func (s *ChatService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal("failed to count unread messages", err)
	}
	return count, nil
}

// GetMessages returns a conversation's history, oldest first. Only
// participants may read it.
func (s *ChatService) GetMessages(ctx context.Context, conversationID, userID primitive.ObjectID) ([]models.Message, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.Forbidden("not part of this conversation")
	}

	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch messages", err)
	}
	return messages, nil
}

// GetConversation returns one conversation a user participates in.
func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID primitive.ObjectID) (*models.Conversation, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.Forbidden("not part of this conversation")
	}
	return conv, nil
}

// GetConversations returns the user's inbox, most recently active first.
func (s *ChatService) GetConversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	convs, err := s.repo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch conversations", err)
	}
	return convs, nil
}
