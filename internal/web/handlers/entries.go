package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/face-id/internal/recognition"
)

// EntriesHandler lists enrolled entries and collection statistics.
type EntriesHandler struct {
	service *recognition.Service
}

// NewEntriesHandler creates a new entries handler
func NewEntriesHandler(service *recognition.Service) *EntriesHandler {
	return &EntriesHandler{service: service}
}

// EntryResponse is an enrolled entry without its embedding.
type EntryResponse struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"person_id"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

// EntriesResponse is a page of entries.
type EntriesResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
}

// List returns entries in enrollment order. Query parameters: q (name filter),
// limit and offset.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := parseNonNegative(query.Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := parseNonNegative(query.Get("offset"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	entries, err := h.service.Entries(r.Context(), query.Get("q"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	total := len(entries)
	if offset > total {
		offset = total
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	resp := EntriesResponse{
		Entries: make([]EntryResponse, len(entries)),
		Total:   total,
		Offset:  offset,
	}
	for i, e := range entries {
		resp.Entries[i] = EntryResponse{
			ID:        e.ID,
			PersonID:  e.PersonID,
			Name:      e.DisplayName,
			Dim:       len(e.Embedding),
			CreatedAt: e.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Stats returns collection statistics.
func (h *EntriesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
