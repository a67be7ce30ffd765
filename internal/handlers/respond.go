package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/mnbarber/bookden/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID extracts the authenticated user from the request context.
func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeJSON sends a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a service error onto its HTTP status. Internal causes
// are logged but not exposed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)

	message := "internal server error"
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != apperrors.CodeInternal {
		message = domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Log.WithError(err).Error("Request failed")
	}

	writeJSON(w, status, map[string]string{"error": message})
}
