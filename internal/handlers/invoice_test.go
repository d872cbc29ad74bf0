package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/auth"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{}, &models.Inventory{},
		&models.Customer{}, &models.Invoice{}, &models.InvoiceLine{}, &models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type storeFixtures struct {
	clerk   models.User
	admin   models.User
	regular models.Customer
	kb      models.Product
}

func seedStore(t *testing.T, db *gorm.DB) storeFixtures {
	t.Helper()
	f := storeFixtures{}
	f.clerk = models.User{Name: "Clerk", Email: "clerk@test", PasswordHash: "x", Role: models.RoleEmployee}
	if err := db.Create(&f.clerk).Error; err != nil {
		t.Fatalf("seed clerk: %v", err)
	}
	f.admin = models.User{Name: "Boss", Email: "boss@test", PasswordHash: "x", Role: models.RoleAdmin}
	if err := db.Create(&f.admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	f.regular = models.Customer{Name: "Regular", Email: "regular@test"}
	if err := db.Create(&f.regular).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	cat := models.Category{Name: "Electronics", TaxPercentage: 18}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.kb = models.Product{Name: "Wireless Keyboard", Price: decimal.RequireFromString("1299.00"), CategoryID: cat.ID, StockQuantity: 10}
	if err := db.Create(&f.kb).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return f
}

// asUser attaches a session principal, the way auth.Middleware would.
func asUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), auth.Principal{UserID: u.ID, Role: u.Role}))
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestInvoiceCreate(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := asUser(postJSON(t, "/invoices", map[string]any{
		"customer_id":    f.regular.ID,
		"payment_method": "Cash",
		"items":          []map[string]any{{"product_id": f.kb.ID, "quantity": 2}},
	}), f.clerk)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success   bool   `json:"success"`
		InvoiceID uint   `json:"invoice_id"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.InvoiceID == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	var p models.Product
	if err := db.First(&p, f.kb.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.StockQuantity != 8 {
		t.Fatalf("stock not decremented: %d", p.StockQuantity)
	}
}

func TestInvoiceCreateRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := postJSON(t, "/invoices", map[string]any{
		"payment_method": "Cash",
		"items":          []map[string]any{{"product_id": f.kb.ID, "quantity": 1}},
	})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestInvoiceCreateEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := asUser(postJSON(t, "/invoices", map[string]any{
		"payment_method": "Cash",
		"items":          []map[string]any{},
	}), f.clerk)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvoiceCreateInsufficientStockMessage(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := asUser(postJSON(t, "/invoices", map[string]any{
		"payment_method": "Cash",
		"items":          []map[string]any{{"product_id": f.kb.ID, "quantity": 99}},
	}), f.clerk)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := "insufficient stock for Wireless Keyboard: requested 99, only 10 available"
	if resp.Message != want {
		t.Fatalf("message = %q, want %q", resp.Message, want)
	}
}

func TestInvoiceCreateBadJSON(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Create(rec, asUser(req, f.clerk))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func finalizeCart(t *testing.T, db *gorm.DB, f storeFixtures, qty int) uint {
	t.Helper()
	svc := services.NewFinalizer(db)
	res, err := svc.Finalize(context.Background(), f.clerk.ID, services.FinalizeRequest{
		PaymentMethod: "Cash",
		Items:         []services.CartItem{{ProductID: f.kb.ID, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return res.InvoiceID
}

func TestReceiptFirstViewMarksPaid(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))
	id := finalizeCart(t, db, f, 2)

	show := func() receiptResponse {
		req := asUser(httptest.NewRequest(http.MethodGet, "/invoices/"+strconv.Itoa(int(id)), nil), f.clerk)
		req.SetPathValue("id", strconv.Itoa(int(id)))
		rec := httptest.NewRecorder()
		h.Show(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp receiptResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode receipt: %v", err)
		}
		return resp
	}

	first := show()
	if first.Status != models.InvoiceStatusPaid {
		t.Fatalf("first view status = %q, want paid", first.Status)
	}
	if got := first.GrandTotal.StringFixed(2); got != "3065.64" {
		// 2 x 1299.00 = 2598.00, 18% tax = 467.64
		t.Fatalf("grand total = %s", got)
	}

	second := show()
	if second.Status != models.InvoiceStatusPaid {
		t.Fatalf("second view status = %q", second.Status)
	}
	if !second.GrandTotal.Equal(first.GrandTotal) {
		t.Fatalf("totals changed between views: %s vs %s", first.GrandTotal, second.GrandTotal)
	}

	var n int64
	if err := db.Model(&models.Invoice{}).Where("status = ?", models.InvoiceStatusPaid).Count(&n).Error; err != nil {
		t.Fatalf("count paid: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one paid invoice, got %d", n)
	}
}

func TestReceiptNotFound(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	req := asUser(httptest.NewRequest(http.MethodGet, "/invoices/424242", nil), f.clerk)
	req.SetPathValue("id", "424242")
	rec := httptest.NewRecorder()
	h.Show(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInvoiceListFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewInvoiceHandler(db, services.NewFinalizer(db))

	id := finalizeCart(t, db, f, 1)
	finalizeCart(t, db, f, 1)
	if err := db.Model(&models.Invoice{}).Where("id = ?", id).UpdateColumn("status", models.InvoiceStatusPaid).Error; err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/invoices?status=paid", nil), f.clerk)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Items []models.Invoice `json:"items"`
		Total int64            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].ID != id {
		t.Fatalf("unexpected list: total=%d items=%d", resp.Total, len(resp.Items))
	}
}
