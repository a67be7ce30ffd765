package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", InvalidArgument("rating must be between 1 and 5"), http.StatusBadRequest},
		{"not found", NotFound("book not found"), http.StatusNotFound},
		{"forbidden", Forbidden("cannot like your own review"), http.StatusForbidden},
		{"conflict", Conflict("book already on shelf"), http.StatusConflict},
		{"internal", Internal("storage failure", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsInvalidArgument(InvalidArgument("bad")))
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.True(t, IsForbidden(Forbidden("no")))
	assert.True(t, IsConflict(Conflict("dup")))
	assert.False(t, IsConflict(NotFound("gone")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestWrappedCauseSurvivesErrorsIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("storage failure", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")

	wrapped := fmt.Errorf("send message: %w", err)
	assert.True(t, IsConflict(Conflict("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(wrapped))
}
