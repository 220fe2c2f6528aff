package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-id/internal/recognition"
)

// FacesHandler handles enrollment, identification and verification.
// Each endpoint accepts either a multipart form with an "image" file or a
// JSON body carrying a precomputed embedding.
type FacesHandler struct {
	service *recognition.Service
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(service *recognition.Service) *FacesHandler {
	return &FacesHandler{service: service}
}

type enrollRequest struct {
	PersonID  string    `json:"person_id"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

type enrollResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*recognition.EnrollmentResult
	// TotalEmbeddings repeats TotalEntries under the name camera clients read.
	TotalEmbeddings int `json:"total_embeddings"`
}

// Enroll adds a face to the collection.
func (h *FacesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var (
		res  *recognition.EnrollmentResult
		name string
		err  error
	)

	if isMultipart(r) {
		var image []byte
		image, err = parseImageForm(w, r)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		name = r.FormValue("name")
		res, err = h.service.EnrollImage(r.Context(), r.FormValue("person_id"), name, image)
	} else {
		var req enrollRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondServiceError(w, r, err)
			return
		}
		name = req.Name
		res, err = h.service.Enroll(r.Context(), recognition.EnrollRequest{
			PersonID:    req.PersonID,
			DisplayName: req.Name,
			Embedding:   req.Embedding,
		})
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if name == "" {
		name = res.PersonID
	}
	log.Printf("Enrolled %s (%d entries)", sanitizeForLog(res.PersonID), res.TotalEntries)
	respondJSON(w, http.StatusOK, enrollResponse{
		Status:           "ok",
		Message:          fmt.Sprintf("Enrolled %s", name),
		EnrollmentResult: res,
		TotalEmbeddings:  res.TotalEntries,
	})
}

type identifyRequest struct {
	Embedding []float32 `json:"embedding"`
	TopK      int       `json:"top_k"`
}

type identifyResponse struct {
	*recognition.IdentificationResult
	Candidates []recognition.IdentificationResult `json:"candidates,omitempty"`
}

// Identify returns the best match for a face. With top_k > 0 (JSON field or
// form value) it also returns the best entry of up to top_k distinct persons,
// ranked from the same read of the collection as the best match.
func (h *FacesHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var (
		res        *recognition.IdentificationResult
		candidates []recognition.IdentificationResult
		err        error
	)

	if isMultipart(r) {
		var image []byte
		image, err = parseImageForm(w, r)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		topK := 0
		if v := r.FormValue("top_k"); v != "" {
			topK, err = strconv.Atoi(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "top_k must be an integer")
				return
			}
		}
		res, candidates, err = h.service.IdentifyImageRanked(r.Context(), image, topK)
	} else {
		var req identifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondServiceError(w, r, err)
			return
		}
		res, candidates, err = h.service.IdentifyRanked(r.Context(), req.Embedding, req.TopK)
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, identifyResponse{IdentificationResult: res, Candidates: candidates})
}

type verifyRequest struct {
	PersonID  string    `json:"person_id"`
	Embedding []float32 `json:"embedding"`
}

// Verify checks a face against an expected person (1:1).
func (h *FacesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var (
		res *recognition.VerificationResult
		err error
	)

	if isMultipart(r) {
		var image []byte
		image, err = parseImageForm(w, r)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		res, err = h.service.VerifyImage(r.Context(), r.FormValue("person_id"), image)
	} else {
		var req verifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondServiceError(w, r, err)
			return
		}
		res, err = h.service.Verify(r.Context(), req.PersonID, req.Embedding)
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}
