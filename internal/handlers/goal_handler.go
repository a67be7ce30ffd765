package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalHandler exposes reading-goal CRUD and computed progress.
type GoalHandler struct {
	Service  *services.GoalService
	validate *validator.Validate
}

func NewGoalHandler(service *services.GoalService) *GoalHandler {
	return &GoalHandler{
		Service:  service,
		validate: validator.New(),
	}
}

// CreateGoalHandler creates a new reading goal.
func (h *GoalHandler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Type        string `json:"type" validate:"required"`
		TargetValue int    `json:"target_value" validate:"required"`
		Timeframe   string `json:"timeframe" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(&body); err != nil {
		http.Error(w, "Invalid goal payload", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), userID, body.Type, body.TargetValue, body.Timeframe)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// GetGoalsHandler lists the caller's goals.
func (h *GoalHandler) GetGoalsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	goals, err := h.Service.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// GetProgressHandler computes progress for every active goal.
func (h *GoalHandler) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	progress, err := h.Service.Progress(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// UpdateGoalHandler changes target value and/or active state.
func (h *GoalHandler) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	var body struct {
		TargetValue *int  `json:"target_value"`
		IsActive    *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	goal, err := h.Service.UpdateGoal(r.Context(), userID, goalID, body.TargetValue, body.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// DeleteGoalHandler removes a goal.
func (h *GoalHandler) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	goalID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteGoal(r.Context(), userID, goalID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "goal deleted"})
}
