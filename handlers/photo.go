package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pixelfall/gallerybackend/database"
	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/services"
	"gorm.io/gorm"
)

// uploads larger than this are rejected before buffering
const maxUploadBytes = 50 << 20 // 50 MB

type PhotoHandler struct {
	Photos *services.PhotoService
	DB     *gorm.DB
}

func NewPhotoHandler(photos *services.PhotoService, db *gorm.DB) *PhotoHandler {
	return &PhotoHandler{Photos: photos, DB: db}
}

func photoIDParam(r *http.Request) (uint, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// readUploadedFile pulls the "file" part out of a multipart request
func readUploadedFile(r *http.Request) (data []byte, filename, mimeType string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", err
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", err
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

func overridesFromForm(r *http.Request) media.Overrides {
	return media.Overrides{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Story:       r.FormValue("story"),
		Visibility:  r.FormValue("visibility"),
		Camera:      r.FormValue("camera"),
		Lens:        r.FormValue("lens"),
		Location:    r.FormValue("location"),
		TakenAt:     r.FormValue("takenAt"),
		ISO:         r.FormValue("iso"),
		Aperture:    r.FormValue("aperture"),
		Shutter:     r.FormValue("shutter"),
		FocalLength: r.FormValue("focalLength"),
		ManualExif:  r.FormValue("exif"),
	}
}

// Upload ingests a photo: multipart "file" plus the optional override
// fields. admin only.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	data, filename, mimeType, err := readUploadedFile(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid upload: "+err.Error())
		return
	}
	if len(data) > maxUploadBytes {
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
		return
	}

	photo, err := h.Photos.CreatePhoto(data, filename, mimeType, overridesFromForm(r), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// ExtractMetadata parses an upload's EXIF without persisting anything
func (h *PhotoHandler) ExtractMetadata(w http.ResponseWriter, r *http.Request) {
	data, _, _, err := readUploadedFile(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid upload: "+err.Error())
		return
	}

	result := h.Photos.ExtractMetadata(data)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exif":     result.Exif,
		"camera":   result.Camera,
		"lens":     result.Lens,
		"takenAt":  result.TakenAt,
		"location": result.Location,
	})
}

// List returns photos newest-first. PRIVATE photos are only listed for
// admins; anonymous and regular callers see the public set.
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	var visibility *models.Visibility

	if v := r.URL.Query().Get("visibility"); v != "" {
		vis := models.Visibility(v)
		if !vis.Valid() {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "Invalid visibility filter")
			return
		}
		visibility = &vis
	}

	user, _ := UserFromContext(r.Context())
	if user == nil || !user.IsAdmin() {
		public := models.VisibilityPublic
		visibility = &public
	}

	photos, err := h.Photos.ListPhotos(visibility)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// Get returns one photo with its comment tree
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := photoIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	photo, err := h.Photos.GetPhoto(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// Update applies a PATCH body to a photo. admin only.
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := photoIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	var upd services.PhotoUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	photo, err := h.Photos.UpdatePhoto(id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// Delete removes a photo. admin only.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := photoIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid photo ID")
		return
	}

	if err := h.Photos.DeletePhoto(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Photo deleted"})
}

// FixThumbs regenerates every photo's thumbnail from its original file
func (h *PhotoHandler) FixThumbs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Photos.RegenerateAllThumbnails()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// FixMetadata re-derives every photo's metadata from its original file
func (h *PhotoHandler) FixMetadata(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Photos.FixMetadata()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Activity returns upload counts per day
func (h *PhotoHandler) Activity(w http.ResponseWriter, r *http.Request) {
	activity, err := database.UploadActivity(h.DB)
	if err != nil {
		log.Printf("photos: failed to aggregate upload activity: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to compute upload activity")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
