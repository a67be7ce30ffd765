package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mnbarber/bookden/internal/presence"
	"github.com/mnbarber/bookden/internal/services"
	jwtutil "github.com/mnbarber/bookden/pkg/jwt"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WSMessage is the client-to-server frame on the chat socket.
type WSMessage struct {
	Type           string `json:"type"` // "message", "typing", "stop-typing", "mark-read"
	RecipientID    string `json:"recipient_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

// WSChatHandler runs the websocket side of chat: presence, typing and live
// message delivery. Messages are persisted through the chat service before
// any push; a failed push loses nothing.
type WSChatHandler struct {
	Service   *services.ChatService
	Hub       *presence.Hub
	JWTSecret string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewWSChatHandler(service *services.ChatService, hub *presence.Hub, jwtSecret string) *WSChatHandler {
	return &WSChatHandler{Service: service, Hub: hub, JWTSecret: jwtSecret}
}

// ServeWS authenticates the token query parameter, upgrades the
// connection and enters the read loop.
func (h *WSChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.Hub.Connect(userID, conn)
	defer h.Hub.Disconnect(userID)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// client disconnected
			break
		}
		h.handleFrame(r, userID, &msg)
	}
}

func (h *WSChatHandler) handleFrame(r *http.Request, userID string, msg *WSMessage) {
	switch msg.Type {
	case "typing", "stop-typing":
		h.Hub.RelayTyping(userID, msg.RecipientID, msg.ConversationID, msg.Type == "typing")

	case "mark-read":
		convID, err := primitive.ObjectIDFromHex(msg.ConversationID)
		if err != nil {
			h.sendError(userID, "invalid conversation id")
			return
		}
		readerID, _ := primitive.ObjectIDFromHex(userID)
		if _, err := h.Service.MarkRead(r.Context(), convID, readerID); err != nil {
			h.sendError(userID, err.Error())
			return
		}
		h.Hub.RelayReadReceipt(userID, msg.RecipientID, msg.ConversationID)

	case "", "message":
		senderID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return
		}
		recipientID, err := primitive.ObjectIDFromHex(msg.RecipientID)
		if err != nil {
			h.sendError(userID, "invalid recipient id")
			return
		}

		conv, err := h.Service.GetOrCreateConversation(r.Context(), senderID, recipientID)
		if err != nil {
			h.sendError(userID, err.Error())
			return
		}

		// Durable persist first, best-effort push second.
		saved, err := h.Service.SendMessage(r.Context(), conv.ID, senderID, msg.Content)
		if err != nil {
			h.sendError(userID, err.Error())
			return
		}

		h.Hub.RelayMessage(msg.RecipientID, saved)
		// Echo back so the sender's client confirms the durable copy. Goes
		// through the hub so it shares the connection write lock.
		h.Hub.Send(userID, map[string]interface{}{
			"type":    "message-sent",
			"message": saved,
		})
	}
}

func (h *WSChatHandler) sendError(userID, message string) {
	h.Hub.Send(userID, map[string]interface{}{
		"type":  "error",
		"error": message,
	})
}
