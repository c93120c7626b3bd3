package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/repository"
	"gorm.io/gorm"
)

const bootstrapAdminUsername = "admin"
const bootstrapAdminPassword = "password123"

type UserHandler struct {
	UserRepo repository.UserRepositoryInterface
}

func NewUserHandler(userRepo repository.UserRepositoryInterface) *UserHandler {
	return &UserHandler{UserRepo: userRepo}
}

type ChangePasswordPayload struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword verifies the current password of the authenticated user
// and replaces it
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var payload ChangePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}
	if payload.OldPassword == "" || payload.NewPassword == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "Both old and new password are required")
		return
	}

	if !user.CheckPassword(payload.OldPassword) {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "Old password is incorrect")
		return
	}

	updated := models.User{}
	if err := updated.SetPassword(payload.NewPassword); err != nil {
		log.Printf("user: failed to hash new password for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to change password")
		return
	}

	if err := h.UserRepo.UpdatePassword(user.ID, updated.PasswordHash); err != nil {
		log.Printf("user: failed to update password for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// InitAdmin is an idempotent bootstrap: it creates the default admin
// account, or resets its password and role if it already exists.
func (h *UserHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	hashed := models.User{}
	if err := hashed.SetPassword(bootstrapAdminPassword); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize admin")
		return
	}

	existing, err := h.UserRepo.GetByUsername(bootstrapAdminUsername)
	if err == nil {
		if err := h.UserRepo.UpdatePassword(existing.ID, hashed.PasswordHash); err != nil {
			log.Printf("user: failed to reset admin password: %v", err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize admin")
			return
		}
		if err := h.UserRepo.UpdateRole(existing.ID, models.RoleAdmin); err != nil {
			log.Printf("user: failed to reset admin role: %v", err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize admin")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Admin password reset to " + bootstrapAdminPassword})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("user: failed to look up admin account: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize admin")
		return
	}

	admin := &models.User{
		Username:     bootstrapAdminUsername,
		PasswordHash: hashed.PasswordHash,
		Role:         models.RoleAdmin,
	}
	if err := h.UserRepo.Create(admin); err != nil {
		log.Printf("user: failed to create admin account: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize admin")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Admin created"})
}
