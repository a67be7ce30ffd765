package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/services"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendHandler struct {
	Service *services.FriendService
}

func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendRequest handles POST /friends/requests.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	var body struct {
		ReceiverID string `json:"receiver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(body.ReceiverID)
	if err != nil {
		writeError(w, apperrors.InvalidArgument("invalid receiver id"))
		return
	}

	request, err := h.Service.SendFriendRequest(r.Context(), userID, receiverID)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"sender":   userID.Hex(),
		"receiver": receiverID.Hex(),
	}).Info("Friend request sent")
	writeJSON(w, http.StatusCreated, request)
}

// PendingRequests handles GET /friends/requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// Respond handles POST /friends/requests/{id}.
func (h *FriendHandler) RespondToFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	requestID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request id"))
		return
	}

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	if err := h.Service.RespondToRequest(r.Context(), requestID, userID, body.Accept); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": body.Accept})
}

// ListFriends handles GET /friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriend handles DELETE /friends/{id}.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	friendID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.InvalidArgument("invalid friend id"))
		return
	}

	if err := h.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}
