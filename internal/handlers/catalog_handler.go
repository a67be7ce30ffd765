package handlers

import (
	"net/http"
	"strconv"

	"github.com/mnbarber/bookden/internal/catalog"
	"github.com/mnbarber/bookden/pkg/apperrors"
)

// CatalogHandler proxies catalog search and book details. The catalog key
// travels as a query parameter because keys contain slashes.
type CatalogHandler struct {
	Client *catalog.Client
}

func NewCatalogHandler(client *catalog.Client) *CatalogHandler {
	return &CatalogHandler{Client: client}
}

// Search handles GET /catalog/search?q=...&limit=...
func (h *CatalogHandler) SearchBooksHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, apperrors.InvalidArgument("query parameter q is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, apperrors.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	results, err := h.Client.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, apperrors.Internal("catalog search failed", err))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetDetails handles GET /catalog/book?key=/works/OL1W
func (h *CatalogHandler) GetBookDetailsHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, apperrors.InvalidArgument("query parameter key is required"))
		return
	}

	details, err := h.Client.GetDetails(r.Context(), key)
	if err != nil {
		writeError(w, apperrors.Internal("catalog lookup failed", err))
		return
	}
	writeJSON(w, http.StatusOK, details)
}
