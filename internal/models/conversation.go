package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds a single chat message's content.
const MaxMessageLength = 2000

// Conversation is a two-party chat. Exactly two participants, enforced at
// creation; the pair is unique regardless of order. LastMessage is a
// denormalized snapshot used for inbox rendering.
type Conversation struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	LastMessage  *Message             `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// Other returns the participant that is not userID. ok is false when
// userID is not part of the conversation.
func (c *Conversation) Other(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	for _, p := range c.Participants {
		if p != userID {
			continue
		}
		for _, q := range c.Participants {
			if q != userID {
				return q, true
			}
		}
		// Self-conversations are never created, but be explicit.
		return userID, true
	}
	return primitive.NilObjectID, false
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message is one chat message. Immutable once sent except for the read
// flag, which flips false to true exactly once.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	RecipientID    primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	Content        string             `bson:"content" json:"content"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
