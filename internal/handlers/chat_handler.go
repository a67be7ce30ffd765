package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/presence"
	"github.com/mnbarber/bookden/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler exposes the REST side of messaging: inbox, history, send,
// read and the unread badge. Send persists first, then pushes a live copy
// through the presence hub; an offline recipient picks the message up on
// the next history fetch.
type ChatHandler struct {
	Service *services.ChatService
	Hub     *presence.Hub
}

func NewChatHandler(service *services.ChatService, hub *presence.Hub) *ChatHandler {
	return &ChatHandler{Service: service, Hub: hub}
}

// GetConversationsHandler returns the caller's inbox, most recent first.
func (h *ChatHandler) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	convs, err := h.Service.GetConversations(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// OpenConversationHandler finds or creates the conversation with another
// user.
func (h *ChatHandler) OpenConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	otherID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	conv, err := h.Service.GetOrCreateConversation(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// GetMessagesHandler returns a conversation's history, oldest first.
func (h *ChatHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	convID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	messages, err := h.Service.GetMessages(r.Context(), convID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessageHandler persists a message and pushes it to a connected
// recipient. Push failure is not an error.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	convID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	msg, err := h.Service.SendMessage(r.Context(), convID, userID, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	h.Hub.RelayMessage(msg.RecipientID.Hex(), msg)
	writeJSON(w, http.StatusCreated, msg)
}

// MarkReadHandler flips unread messages addressed to the caller in one
// conversation and notifies the other participant.
func (h *ChatHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	convID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	count, err := h.Service.MarkRead(r.Context(), convID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if conv, err := h.Service.GetConversation(r.Context(), convID, userID); err == nil {
		if other, ok := conv.Other(userID); ok {
			h.Hub.RelayReadReceipt(userID.Hex(), other.Hex(), convID.Hex())
		}
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": count})
}

// UnreadCountHandler returns the badge count across all conversations.
func (h *ChatHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}
