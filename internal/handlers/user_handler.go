package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/services"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	Service  *services.UserService
	validate *validator.Validate
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{Service: service, validate: validator.New()}
}

type registerPayload struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles POST /users/register.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var body registerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, apperrors.InvalidArgument("validation failed: %v", err))
		return
	}

	user, err := h.Service.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithField("userID", user.ID.Hex()).Info("User registered via API")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       user.ID.Hex(),
		"username": user.Username,
		"email":    user.Email,
	})
}

// Login handles POST /users/login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	token, user, err := h.Service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID.Hex(),
			"username": user.Username,
		},
	})
}

// GetProfile handles GET /users/{id}.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.InvalidArgument("invalid user id"))
		return
	}

	profile, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /users/me.
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, apperrors.Forbidden("unauthorized"))
		return
	}

	var body struct {
		Username  *string `json:"username"`
		AvatarURL *string `json:"avatar_url"`
		IsPrivate *bool   `json:"is_private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	if err := h.Service.UpdateProfile(r.Context(), userID, body.Username, body.AvatarURL, body.IsPrivate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}
