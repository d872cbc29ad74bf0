package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/auth"
	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/services"
)

// InvoiceHandler exposes the finalize endpoint and receipt views.
type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.Finalizer
}

func NewInvoiceHandler(db *gorm.DB, svc *services.Finalizer) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

// finalizeResponse is the envelope the billing screen expects.
type finalizeResponse struct {
	Success   bool   `json:"success"`
	InvoiceID uint   `json:"invoice_id,omitempty"`
	Message   string `json:"message"`
}

// Create: POST /invoices — finalizes a cart into a persisted sale.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusUnauthorized, finalizeResponse{Success: false, Message: "unauthorized"})
		return
	}
	var req services.FinalizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, finalizeResponse{Success: false, Message: "invalid JSON payload"})
		return
	}

	result, err := h.Svc.Finalize(r.Context(), principal.UserID, req)
	if err != nil {
		status, msg := finalizeErrorStatus(err)
		httpx.JSON(w, status, finalizeResponse{Success: false, Message: msg})
		return
	}
	httpx.JSON(w, http.StatusCreated, finalizeResponse{
		Success:   true,
		InvoiceID: result.InvoiceID,
		Message:   "Invoice #" + strconv.FormatUint(uint64(result.InvoiceID), 10) + " created successfully.",
	})
}

// finalizeErrorStatus maps the finalization taxonomy onto HTTP statuses.
// Everything the user can fix by editing the cart is 422; unknown failures
// stay 500 with a generic message.
func finalizeErrorStatus(err error) (int, string) {
	var (
		notFound   *services.ProductNotFoundError
		badQty     *services.InvalidQuantityError
		outOfStock *services.InsufficientStockError
		saveFailed *services.PersistenceError
		payFailed  *services.PaymentError
	)
	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrMissingPaymentMethod),
		errors.As(err, &notFound),
		errors.As(err, &badQty),
		errors.As(err, &outOfStock),
		errors.As(err, &saveFailed),
		errors.As(err, &payFailed):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "an unexpected server error occurred"
	}
}

type receiptLine struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	TaxRate      float64         `json:"tax_rate"`
}

type receiptPayment struct {
	Method string          `json:"method"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paid_at"`
}

type receiptResponse struct {
	InvoiceID   uint             `json:"invoice_id"`
	Status      string           `json:"status"`
	InvoiceDate time.Time        `json:"invoice_date"`
	Customer    *models.Customer `json:"customer"`
	Lines       []receiptLine    `json:"lines"`
	Payments    []receiptPayment `json:"payments"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TotalTax    decimal.Decimal  `json:"total_tax"`
	GrandTotal  decimal.Decimal  `json:"grand_total"`
}

// Show: GET /invoices/{id} — the receipt view. Rendering a draft receipt for
// the first time marks the invoice paid; re-rendering is a no-op.
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderReceipt(w, r)
}

// Printable: GET /invoices/{id}/printable — same data and same status side
// effect as Show; kept as its own route for the print layout client.
func (h *InvoiceHandler) Printable(w http.ResponseWriter, r *http.Request) {
	h.renderReceipt(w, r)
}

func (h *InvoiceHandler) renderReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var inv models.Invoice
	err = h.DB.
		Preload("Customer").
		Preload("Lines.Product.Category").
		Preload("Payments").
		First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}

	// First receipt render flips draft to paid. The conditional update makes
	// the transition idempotent under concurrent renders.
	if inv.Status == models.InvoiceStatusDraft {
		res := h.DB.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, models.InvoiceStatusDraft).
			UpdateColumn("status", models.InvoiceStatusPaid)
		if res.Error != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_status", nil)
			return
		}
		inv.Status = models.InvoiceStatusPaid
	}

	subtotal, tax, grandTotal := services.InvoiceTotals(&inv)
	resp := receiptResponse{
		InvoiceID:   inv.ID,
		Status:      inv.Status,
		InvoiceDate: inv.InvoiceDate,
		Customer:    inv.Customer,
		Subtotal:    subtotal,
		TotalTax:    tax,
		GrandTotal:  grandTotal,
		Lines:       make([]receiptLine, 0, len(inv.Lines)),
		Payments:    make([]receiptPayment, 0, len(inv.Payments)),
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, receiptLine{
			ProductID:    l.ProductID,
			ProductName:  l.Product.Name,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineSubtotal: l.Subtotal().Round(2),
			TaxRate:      l.Product.Category.TaxPercentage,
		})
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, receiptPayment{Method: p.Method, Status: p.Status, Amount: p.Amount, PaidAt: p.PaidAt})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// List: GET /invoices — paginated, optionally filtered by status.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Model(&models.Invoice{})
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	dbq.Count(&total)
	var invoices []models.Invoice
	if err := dbq.Preload("Customer").Order("id desc").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": total, "limit": limit, "offset": offset})
}
