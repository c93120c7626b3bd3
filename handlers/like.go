package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/repository"
)

type LikeHandler struct {
	Likes  repository.LikeRepositoryInterface
	Photos repository.PhotoRepositoryInterface
}

func NewLikeHandler(likes repository.LikeRepositoryInterface, photos repository.PhotoRepositoryInterface) *LikeHandler {
	return &LikeHandler{Likes: likes, Photos: photos}
}

func likePhotoIDParam(r *http.Request) (uint, bool) {
	idStr := chi.URLParam(r, "photoId")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Create records a like. Each IP may like a given photo once per
// calendar day (server local time).
func (h *LikeHandler) Create(w http.ResponseWriter, r *http.Request) {
	photoID, ok := likePhotoIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	if _, err := h.Photos.GetByID(photoID); err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		return
	}

	ip := clientIP(r)
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	liked, err := h.Likes.ExistsForIPSince(photoID, ip, startOfDay)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if liked {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "Photo already liked today")
		return
	}

	if err := h.Likes.Create(&models.Like{PhotoID: photoID, IP: ip}); err != nil {
		writeServiceError(w, err)
		return
	}

	count, err := h.Likes.CountByPhoto(photoID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"count": count})
}

// Count returns a photo's like total
func (h *LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	photoID, ok := likePhotoIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	count, err := h.Likes.CountByPhoto(photoID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
