package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/internal/services"
	"github.com/mnbarber/bookden/pkg/logger"
)

// LibraryHandler exposes the shelf operations. Book keys may contain
// slashes (catalog keys like /works/OL1W), so they travel in bodies and
// query parameters, never in the URL path.
type LibraryHandler struct {
	Service  *services.LibraryService
	validate *validator.Validate
}

func NewLibraryHandler(service *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		Service:  service,
		validate: validator.New(),
	}
}

type bookPayload struct {
	Key           string `json:"key"`
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author"`
	CoverURL      string `json:"cover_url"`
	NumberOfPages int    `json:"number_of_pages" validate:"gte=0"`
}

func (p *bookPayload) toEntry() models.BookEntry {
	return models.BookEntry{
		Key:           p.Key,
		Title:         p.Title,
		Author:        p.Author,
		CoverURL:      p.CoverURL,
		NumberOfPages: p.NumberOfPages,
	}
}

// GetLibraryHandler returns the caller's full five-shelf library.
func (h *LibraryHandler) GetLibraryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	library, err := h.Service.GetLibrary(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, library)
}

// GetShelfHandler returns one named shelf.
func (h *LibraryHandler) GetShelfHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	shelf := mux.Vars(r)["shelf"]
	entries, err := h.Service.GetShelf(r.Context(), userID, shelf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AddToShelfHandler places a new book on a shelf.
func (h *LibraryHandler) AddToShelfHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload bookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(&payload); err != nil {
		http.Error(w, "Invalid book payload", http.StatusBadRequest)
		return
	}

	shelf := mux.Vars(r)["shelf"]
	entry, err := h.Service.AddToShelf(r.Context(), userID, shelf, payload.toEntry())
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.Infof("User %s added book %s to %s", userID.Hex(), entry.Key, shelf)
	writeJSON(w, http.StatusCreated, entry)
}

// MoveBookHandler relocates a book between shelves.
func (h *LibraryHandler) MoveBookHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Key         string     `json:"key" validate:"required"`
		FromShelf   string     `json:"from_shelf" validate:"required"`
		ToShelf     string     `json:"to_shelf" validate:"required"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(&body); err != nil {
		http.Error(w, "Invalid move payload", http.StatusBadRequest)
		return
	}

	err := h.Service.MoveBook(r.Context(), userID, body.FromShelf, body.ToShelf, body.Key, body.CompletedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book moved"})
}

// RateBookHandler applies a rating, promoting the book to "read".
func (h *LibraryHandler) RateBookHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Book   bookPayload `json:"book"`
		Rating int         `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	entry, err := h.Service.RateBook(r.Context(), userID, body.Book.toEntry(), body.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ReviewBookHandler attaches a review, promoting the book to "read".
func (h *LibraryHandler) ReviewBookHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Book             bookPayload `json:"book"`
		Review           string      `json:"review"`
		ContainsSpoilers bool        `json:"contains_spoilers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	entry, err := h.Service.ReviewBook(r.Context(), userID, body.Book.toEntry(), body.Review, body.ContainsSpoilers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteReviewHandler clears a review and purges its feed history.
func (h *LibraryHandler) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing book key", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteReview(r.Context(), userID, key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// UpdateProgressHandler records the current page.
func (h *LibraryHandler) UpdateProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Key         string `json:"key" validate:"required"`
		CurrentPage int    `json:"current_page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(&body); err != nil {
		http.Error(w, "Invalid progress payload", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.UpdateProgress(r.Context(), userID, body.Key, body.CurrentPage)
	if err != nil {
		writeError(w, err)
		return
	}

	complete := entry.NumberOfPages > 0 && entry.CurrentPage >= entry.NumberOfPages
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry":    entry,
		"complete": complete,
	})
}

// RemoveFromShelfHandler takes a book off a shelf.
func (h *LibraryHandler) RemoveFromShelfHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	shelf := mux.Vars(r)["shelf"]
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing book key", http.StatusBadRequest)
		return
	}

	if err := h.Service.RemoveFromShelf(r.Context(), userID, shelf, key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book removed"})
}
