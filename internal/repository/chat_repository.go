package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepository handles conversations and their messages.
type ChatRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// FindConversation looks up the conversation between two users regardless
// of participant order. Returns nil without error when none exists.
func (r *ChatRepository) FindConversation(ctx context.Context, userA, userB primitive.ObjectID) (*models.Conversation, error) {
	filter := bson.M{
		"participants": bson.M{
			"$all":  []primitive.ObjectID{userA, userB},
			"$size": 2,
		},
	}

	var conv models.Conversation
	err := r.conversations.FindOne(ctx, filter).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %v", err)
	}
	return &conv, nil
}

// CreateConversation inserts a new two-party conversation.
func (r *ChatRepository) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt

	result, err := r.conversations.InsertOne(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %v", err)
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		conv.ID = insertedID
	}
	return conv, nil
}

// GetConversationByID fetches one conversation.
func (r *ChatRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %v", err)
	}
	return &conv, nil
}

// GetUserConversations returns a user's inbox, most recently active first.
func (r *ChatRepository) GetUserConversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %v", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %v", err)
	}
	return convs, nil
}

// InsertMessage persists a message.
func (r *ChatRepository) InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()

	result, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %v", err)
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = insertedID
	}
	return msg, nil
}

// SetLastMessage denormalizes the latest message onto the conversation and
// bumps updated_at for inbox ordering.
func (r *ChatRepository) SetLastMessage(ctx context.Context, conversationID primitive.ObjectID, msg *models.Message) error {
	_, err := r.conversations.UpdateOne(
		ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{
			"last_message": msg,
			"updated_at":   msg.CreatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation last message: %v", err)
	}
	return nil
}

// GetMessages returns a conversation's full history, oldest first.
func (r *ChatRepository) GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}
	return messages, nil
}

// MarkMessagesRead flips read on every unread message addressed to the
// reader within one conversation. The transition is one-directional.
func (r *ChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"conversation_id": conversationID,
		"recipient_id":    readerID,
		"read":            false,
	}
	result, err := r.messages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %v", err)
	}
	return result.ModifiedCount, nil
}

// CountUnread counts unread messages addressed to a user across all
// conversations. Backs the notification badge.
func (r *ChatRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{"recipient_id": userID, "read": false}
	count, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}
	return count, nil
}
