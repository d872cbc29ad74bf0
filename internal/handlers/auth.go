package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/auth"
	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Admin requests the admin console; non-admin accounts are refused.
	Admin bool `json:"admin"`
}

type loginResponse struct {
	User struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Login: POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusInternalServerError, "login_failed", nil)
			return
		}
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if req.Admin && user.Role != models.RoleAdmin {
		httpx.JSONError(w, http.StatusForbidden, "admin_privileges_required", nil)
		return
	}

	auth.CreateSession(w, auth.Principal{UserID: user.ID, Role: user.Role})
	var resp loginResponse
	resp.User.ID = user.ID
	resp.User.Name = user.Name
	resp.User.Email = user.Email
	resp.User.Role = user.Role
	httpx.JSON(w, http.StatusOK, resp)
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
