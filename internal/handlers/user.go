package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/validation"
)

// UserHandler is the admin console's staff management. All routes sit behind
// the admin gate.
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler { return &UserHandler{DB: db} }

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// generatedEmail derives a staff address from name and role, e.g.
// "Jane Doe"/Admin -> jane-doe@admin.retailbuddy.com.
func generatedEmail(name, role string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	domain := "employee.retailbuddy.com"
	if role == models.RoleAdmin {
		domain = "admin.retailbuddy.com"
	}
	return slug + "@" + domain
}

type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// List: GET /admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.Order("id").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_users", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

// Create: POST /admin/users — email is auto-generated when omitted.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Required("password", req.Password, v)
	if !models.ValidRole(req.Role) {
		v["role"] = "must_be_admin_or_employee"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = generatedEmail(req.Name, req.Role)
	}
	var count int64
	h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "email_taken", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	user := models.User{Name: req.Name, Email: email, Role: req.Role, PasswordHash: string(hash)}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

// Update: PUT /admin/users/{id} — password is optional; blank keeps the old one.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	if !models.ValidRole(req.Role) {
		v["role"] = "must_be_admin_or_employee"
	}
	validation.Email("email", req.Email, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	user.Name = req.Name
	user.Role = req.Role
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_user", nil)
			return
		}
		user.PasswordHash = string(hash)
	}
	if err := h.DB.Save(user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "email_taken", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// Delete: DELETE /admin/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	var invoiceCount int64
	if err := h.DB.Model(&models.Invoice{}).Where("user_id = ?", user.ID).Count(&invoiceCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_user", nil)
		return
	}
	if invoiceCount > 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "user_has_recorded_sales", nil)
		return
	}
	if err := h.DB.Delete(&models.User{}, user.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_user", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
			return nil, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return nil, false
	}
	return &user, true
}
