package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeChatStore mirrors the two-collection layout in memory.
type fakeChatStore struct {
	conversations map[primitive.ObjectID]*models.Conversation
	messages      []models.Message
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{conversations: make(map[primitive.ObjectID]*models.Conversation)}
}

func (f *fakeChatStore) FindConversation(_ context.Context, userA, userB primitive.ObjectID) (*models.Conversation, error) {
	for _, conv := range f.conversations {
		if conv.HasParticipant(userA) && conv.HasParticipant(userB) {
			return conv, nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) CreateConversation(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	f.conversations[conv.ID] = conv
	return conv, nil
}

func (f *fakeChatStore) GetConversationByID(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	return f.conversations[id], nil
}

func (f *fakeChatStore) GetUserConversations(_ context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeChatStore) InsertMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return msg, nil
}

func (f *fakeChatStore) SetLastMessage(_ context.Context, conversationID primitive.ObjectID, msg *models.Message) error {
	if conv, ok := f.conversations[conversationID]; ok {
		conv.LastMessage = msg
		conv.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func (f *fakeChatStore) GetMessages(_ context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatStore) MarkMessagesRead(_ context.Context, conversationID, readerID primitive.ObjectID) (int64, error) {
	var count int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.ConversationID == conversationID && m.RecipientID == readerID && !m.Read {
			m.Read = true
			count++
		}
	}
	return count, nil
}

func (f *fakeChatStore) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.RecipientID == userID && !m.Read {
			count++
		}
	}
	return count, nil
}

func TestGetOrCreateConversation(t *testing.T) {
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	t.Run("first contact creates, second reuses", func(t *testing.T) {
		svc := NewChatService(newFakeChatStore())

		created, err := svc.GetOrCreateConversation(ctx, alice, bob)
		require.NoError(t, err)
		require.Len(t, created.Participants, 2)

		// Opposite order resolves to the same pair.
		again, err := svc.GetOrCreateConversation(ctx, bob, alice)
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
	})

	t.Run("self conversation is rejected", func(t *testing.T) {
		svc := NewChatService(newFakeChatStore())
		_, err := svc.GetOrCreateConversation(ctx, alice, alice)
		assert.True(t, apperrors.IsInvalidArgument(err))
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	setup := func(t *testing.T) (*ChatService, *fakeChatStore, *models.Conversation) {
		store := newFakeChatStore()
		svc := NewChatService(store)
		conv, err := svc.GetOrCreateConversation(ctx, alice, bob)
		require.NoError(t, err)
		return svc, store, conv
	}

	t.Run("persists with recipient resolved and unread", func(t *testing.T) {
		svc, store, conv := setup(t)

		msg, err := svc.SendMessage(ctx, conv.ID, alice, "Have you read Dune?")
		require.NoError(t, err)
		assert.Equal(t, bob, msg.RecipientID)
		assert.False(t, msg.Read)

		// Message is durable regardless of any live delivery.
		require.Len(t, store.messages, 1)
		// Inbox preview is denormalized onto the conversation.
		require.NotNil(t, store.conversations[conv.ID].LastMessage)
		assert.Equal(t, msg.ID, store.conversations[conv.ID].LastMessage.ID)
	})

	t.Run("empty and oversized content are rejected", func(t *testing.T) {
		svc, _, conv := setup(t)

		_, err := svc.SendMessage(ctx, conv.ID, alice, "   ")
		assert.True(t, apperrors.IsInvalidArgument(err))

		_, err = svc.SendMessage(ctx, conv.ID, alice, strings.Repeat("a", models.MaxMessageLength+1))
		assert.True(t, apperrors.IsInvalidArgument(err))

		// Exactly at the limit is fine.
		_, err = svc.SendMessage(ctx, conv.ID, alice, strings.Repeat("a", models.MaxMessageLength))
		assert.NoError(t, err)
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		svc, _, conv := setup(t)
		_, err := svc.SendMessage(ctx, conv.ID, primitive.NewObjectID(), "hi")
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("unknown conversation is not found", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.SendMessage(ctx, primitive.NewObjectID(), alice, "hi")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()

	store := newFakeChatStore()
	svc := NewChatService(store)

	convAB, err := svc.GetOrCreateConversation(ctx, alice, bob)
	require.NoError(t, err)
	convCB, err := svc.GetOrCreateConversation(ctx, carol, bob)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.SendMessage(ctx, convAB.ID, alice, "hello")
		require.NoError(t, err)
	}
	_, err = svc.SendMessage(ctx, convCB.ID, carol, "hey")
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Reading one conversation leaves the other untouched.
	flipped, err := svc.MarkRead(ctx, convAB.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	count, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Marking again flips nothing; read is one-way.
	flipped, err = svc.MarkRead(ctx, convAB.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)

	// The sender's own messages are never counted for the sender.
	count, err = svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	t.Run("outsider cannot mark a conversation read", func(t *testing.T) {
		_, err := svc.MarkRead(ctx, convAB.ID, carol)
		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestGetMessages(t *testing.T) {
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	store := newFakeChatStore()
	svc := NewChatService(store)
	conv, err := svc.GetOrCreateConversation(ctx, alice, bob)
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		_, err := svc.SendMessage(ctx, conv.ID, alice, content)
		require.NoError(t, err)
	}

	messages, err := svc.GetMessages(ctx, conv.ID, bob)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)

	t.Run("outsider cannot read history", func(t *testing.T) {
		_, err := svc.GetMessages(ctx, conv.ID, primitive.NewObjectID())
		assert.True(t, apperrors.IsForbidden(err))
	})
}
