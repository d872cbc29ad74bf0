package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/validation"
)

// ProductHandler manages the catalog. Stock edits here are manual corrections;
// sales go through the invoice finalizer.
type ProductHandler struct {
	DB      *gorm.DB
	Catalog *models.CatalogRepository
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db, Catalog: models.NewCatalogRepository(db)}
}

type productRequest struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	CategoryID    uint    `json:"category_id"`
	StockQuantity int     `json:"stock_quantity"`
	Inventory     *struct {
		ReorderLevel      *int   `json:"reorder_level"`
		WarehouseLocation string `json:"warehouse_location"`
	} `json:"inventory"`
}

func (req *productRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.NonNegativeFloat("price", req.Price, v)
	validation.NonNegativeInt("stock_quantity", req.StockQuantity, v)
	if req.CategoryID == 0 {
		v["category_id"] = "required"
	}
	return v
}

// List: GET /products — catalog with category and inventory attached.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Preload("Category").Preload("Inventory")
	if cid := r.URL.Query().Get("category_id"); cid != "" {
		dbq = dbq.Where("category_id = ?", cid)
	}
	var products []models.Product
	if err := dbq.Order("lower(name)").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

// Create: POST /products — also provisions the inventory record with defaults.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "unknown_category", nil)
		return
	}

	inv := &models.Inventory{ReorderLevel: 10, WarehouseLocation: "Default Location"}
	if req.Inventory != nil {
		if req.Inventory.ReorderLevel != nil && *req.Inventory.ReorderLevel >= 0 {
			inv.ReorderLevel = *req.Inventory.ReorderLevel
		}
		if req.Inventory.WarehouseLocation != "" {
			inv.WarehouseLocation = req.Inventory.WarehouseLocation
		}
	}
	product := models.Product{
		Name:          req.Name,
		Price:         decimal.NewFromFloat(req.Price).Round(2),
		CategoryID:    req.CategoryID,
		StockQuantity: req.StockQuantity,
		Inventory:     inv,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_product", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

// Get: GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Update: PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}
	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "unknown_category", nil)
		return
	}
	product.Name = req.Name
	product.Price = decimal.NewFromFloat(req.Price).Round(2)
	product.CategoryID = req.CategoryID
	product.StockQuantity = req.StockQuantity
	if req.Inventory != nil {
		if product.Inventory == nil {
			product.Inventory = &models.Inventory{ProductID: product.ID}
		}
		if req.Inventory.ReorderLevel != nil && *req.Inventory.ReorderLevel >= 0 {
			product.Inventory.ReorderLevel = *req.Inventory.ReorderLevel
		}
		if req.Inventory.WarehouseLocation != "" {
			product.Inventory.WarehouseLocation = req.Inventory.WarehouseLocation
		}
	}
	if err := h.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Delete: DELETE /products/{id} — refused while recorded sales reference the
// product, so invoice line snapshots stay intact.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	var lineCount int64
	if err := h.DB.Model(&models.InvoiceLine{}).Where("product_id = ?", product.ID).Count(&lineCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_product", nil)
		return
	}
	if lineCount > 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "product_has_recorded_sales", nil)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Inventory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, product.ID).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Search: GET /products/search?q= — the billing screen lookup. Returns the
// fields the cart needs, tax rate included; an empty query returns the five
// most recent products.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.Search(r.URL.Query().Get("q"), 25)
	if err != nil {
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"products": []any{}, "error": "failed to search products"})
		return
	}
	type row struct {
		ID            uint            `json:"id"`
		Name          string          `json:"name"`
		Price         decimal.Decimal `json:"price"`
		StockQuantity int             `json:"stock_quantity"`
		TaxRate       float64         `json:"tax_rate"`
	}
	rows := make([]row, 0, len(products))
	for _, p := range products {
		rows = append(rows, row{ID: p.ID, Name: p.Name, Price: p.Price, StockQuantity: p.StockQuantity, TaxRate: p.Category.TaxPercentage})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *ProductHandler) load(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var product models.Product
	if err := h.DB.Preload("Category").Preload("Inventory").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
			return nil, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return nil, false
	}
	return &product, true
}
