package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pixelfall/gallerybackend/config"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/repository"
	"gorm.io/gorm"
)

type AuthHandler struct {
	UserRepo repository.UserRepositoryInterface
	Cfg      config.Config
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, cfg config.Config) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, Cfg: cfg}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) issueToken(user *models.User) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(h.Cfg.JWTExpiryHours) * time.Hour)
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "gallerybackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.Cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid username or password")
		return
	}
	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid username or password")
		return
	}

	tokenString, expiresAt, err := h.issueToken(user)
	if err != nil {
		log.Printf("auth: failed to sign token for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	userForResponse := *user
	userForResponse.PasswordHash = ""

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		User:      userForResponse,
		ExpiresAt: expiresAt,
	})
}

type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register handles new user registration. an explicit ADMIN role
// request is honored; everyone else becomes a regular user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	if payload.Username == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "Username and password are required")
		return
	}

	if _, err := h.UserRepo.GetByUsername(payload.Username); err == nil {
		WriteAPIError(w, http.StatusConflict, "conflict", "Username already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("auth: failed to check username %s: %v", payload.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to register")
		return
	}

	role := models.RoleUser
	if payload.Role == string(models.RoleAdmin) {
		role = models.RoleAdmin
	}

	user := &models.User{Username: payload.Username, Role: role}
	if err := user.SetPassword(payload.Password); err != nil {
		log.Printf("auth: failed to hash password: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to register")
		return
	}

	if err := h.UserRepo.Create(user); err != nil {
		log.Printf("auth: failed to create user %s: %v", payload.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to register")
		return
	}

	user.PasswordHash = ""
	writeJSON(w, http.StatusCreated, user)
}
