package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pixelfall/gallerybackend/services"
)

type AIHandler struct {
	AI *services.AIService
}

func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{AI: ai}
}

// AnalyzePhoto runs the vision model over a stored photo's display variant
func (h *AIHandler) AnalyzePhoto(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	analysis, err := h.AI.AnalyzePhoto(r.Context(), uint(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// AnalyzeUpload runs the vision model over an uploaded image without
// persisting it
func (h *AIHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	data, _, _, err := readUploadedFile(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid upload: "+err.Error())
		return
	}

	analysis, err := h.AI.Analyze(r.Context(), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
