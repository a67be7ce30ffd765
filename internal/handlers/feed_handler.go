package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedHandler exposes the friends and public activity feeds.
type FeedHandler struct {
	Service *services.FeedService
}

func NewFeedHandler(service *services.FeedService) *FeedHandler {
	return &FeedHandler{Service: service}
}

func feedLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0 // service applies its default
	}
	return limit
}

// FriendsFeedHandler returns recent activity from the caller's friends.
func (h *FeedHandler) FriendsFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.Service.FriendsFeed(r.Context(), userID, feedLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PublicFeedHandler returns recent activity from public profiles.
func (h *FeedHandler) PublicFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.Service.PublicFeed(r.Context(), userID, feedLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ToggleLikeHandler likes or unlikes the review behind a feed item.
func (h *FeedHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	activityID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}

	liked, likes, err := h.Service.ToggleLike(r.Context(), userID, activityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked": liked,
		"likes": likes,
	})
}
