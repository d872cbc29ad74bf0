package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/validation"
)

// CategoryHandler manages categories and their tax rates. Mutations are
// admin-only (enforced by routing middleware).
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler { return &CategoryHandler{DB: db} }

type categoryRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	TaxPercentage float64 `json:"tax_percentage"`
}

func (req *categoryRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.RangeFloat("tax_percentage", req.TaxPercentage, 0, 100, v)
	return v
}

// List: GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var categories []models.Category
	if err := h.DB.Order("name").Find(&categories).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_categories", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": categories, "total": len(categories)})
}

// Get: GET /categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

// Create: POST /categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	category := models.Category{Name: req.Name, Description: req.Description, TaxPercentage: req.TaxPercentage}
	if err := h.DB.Create(&category).Error; err != nil {
		// unique name constraint is the only expected failure
		httpx.JSONError(w, http.StatusUnprocessableEntity, "category_name_taken", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

// Update: PUT /categories/{id} — changing the tax rate affects future sales
// only; recorded invoice lines keep their captured prices and the receipts
// recompute tax from the category at render time.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	category.Name = req.Name
	category.Description = req.Description
	category.TaxPercentage = req.TaxPercentage
	if err := h.DB.Save(category).Error; err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "category_name_taken", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

// Delete: DELETE /categories/{id} — refused while products reference it.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	var productCount int64
	if err := h.DB.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_category", nil)
		return
	}
	if productCount > 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "category_has_products", nil)
		return
	}
	if err := h.DB.Delete(&models.Category{}, category.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_category", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CategoryHandler) load(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "category_not_found", nil)
			return nil, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_category", nil)
		return nil, false
	}
	return &category, true
}
