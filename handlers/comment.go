package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/repository"
	"gorm.io/gorm"
)

type CommentHandler struct {
	Comments repository.CommentRepositoryInterface
	Photos   repository.PhotoRepositoryInterface
}

func NewCommentHandler(comments repository.CommentRepositoryInterface, photos repository.PhotoRepositoryInterface) *CommentHandler {
	return &CommentHandler{Comments: comments, Photos: photos}
}

type createCommentRequest struct {
	PhotoID  uint   `json:"photoId"`
	Content  string `json:"content"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	ParentID *uint  `json:"parentId"`
}

// Create adds a comment or a reply. Logged-in users comment under their
// account; guests must supply a nickname.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.PhotoID == 0 || req.Content == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "photoId and content are required")
		return
	}

	if _, err := h.Photos.GetByID(req.PhotoID); err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		return
	}

	if req.ParentID != nil {
		parent, err := h.Comments.GetByID(*req.ParentID)
		if err != nil || parent.PhotoID != req.PhotoID {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "Invalid parent comment")
			return
		}
	}

	comment := models.Comment{
		PhotoID:  req.PhotoID,
		Content:  req.Content,
		ParentID: req.ParentID,
		IP:       clientIP(r),
	}

	if user, ok := UserFromContext(r.Context()); ok {
		comment.UserID = &user.ID
	} else {
		nickname := strings.TrimSpace(req.Nickname)
		if nickname == "" {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "nickname is required for guest comments")
			return
		}
		comment.Nickname = &nickname
		if email := strings.TrimSpace(req.Email); email != "" {
			comment.Email = &email
		}
	}

	if err := h.Comments.Create(&comment); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// List returns a photo's top-level comments with nested replies
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	photoIDStr := r.URL.Query().Get("photoId")
	photoID, err := strconv.ParseUint(photoIDStr, 10, 64)
	if err != nil || photoID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid or missing photoId")
		return
	}

	comments, err := h.Comments.ListByPhoto(uint(photoID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Delete removes a comment and its replies. Allowed for admins and for
// the comment's author.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid comment ID")
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	comment, err := h.Comments.GetByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Comment not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	isAuthor := comment.UserID != nil && *comment.UserID == user.ID
	if !user.IsAdmin() && !isAuthor {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "Not allowed to delete this comment")
		return
	}

	if err := h.Comments.Delete(uint(id)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted"})
}
