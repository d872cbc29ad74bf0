package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
)

// InventoryHandler serves the stock overview screen: every product with its
// category, warehouse record, and a low-stock flag.
type InventoryHandler struct {
	DB *gorm.DB
}

func NewInventoryHandler(db *gorm.DB) *InventoryHandler { return &InventoryHandler{DB: db} }

// List: GET /inventory?category_id=&search_query=
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Preload("Category").Preload("Inventory")
	if cid := r.URL.Query().Get("category_id"); cid != "" {
		dbq = dbq.Where("category_id = ?", cid)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("search_query")); q != "" {
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var products []models.Product
	if err := dbq.Order("lower(name)").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_inventory", nil)
		return
	}

	type row struct {
		Product  models.Product `json:"product"`
		LowStock bool           `json:"low_stock"`
	}
	rows := make([]row, 0, len(products))
	for i := range products {
		rows = append(rows, row{Product: products[i], LowStock: products[i].LowStock()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "total": len(rows)})
}
