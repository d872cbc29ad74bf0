package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/validation"
)

type CustomerHandler struct {
	DB *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler { return &CustomerHandler{DB: db} }

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (req *customerRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	return v
}

// List: GET /customers?search_query= — filters on name, email, or phone.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.Customer{})
	if q := strings.TrimSpace(r.URL.Query().Get("search_query")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(email) LIKE ? OR phone LIKE ?", like, like, "%"+q+"%")
	}
	var customers []models.Customer
	if err := dbq.Order("name").Find(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_customers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": customers, "total": len(customers)})
}

// Get: GET /customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

// Create: POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if req.Email != "" {
		var count int64
		h.DB.Model(&models.Customer{}).Where("lower(email) = ?", strings.ToLower(req.Email)).Count(&count)
		if count > 0 {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "email_taken", nil)
			return
		}
	}
	customer := models.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := h.DB.Create(&customer).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

// Update: PUT /customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.load(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	if req.Email != "" {
		var count int64
		h.DB.Model(&models.Customer{}).
			Where("lower(email) = ? AND id <> ?", strings.ToLower(req.Email), customer.ID).
			Count(&count)
		if count > 0 {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "email_taken", nil)
			return
		}
	}
	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	if err := h.DB.Save(customer).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

// Delete: DELETE /customers/{id} — past invoices keep their customer id; the
// reference is nulled so sale history is preserved as anonymous.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.load(w, r)
	if !ok {
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Where("customer_id = ?", customer.ID).
			UpdateColumn("customer_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, customer.ID).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CustomerHandler) load(w http.ResponseWriter, r *http.Request) (*models.Customer, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var customer models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "customer_not_found", nil)
			return nil, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_customer", nil)
		return nil, false
	}
	return &customer, true
}
