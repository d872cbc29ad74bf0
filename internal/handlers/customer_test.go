package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

func TestCustomerCreateRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCustomerHandler(db)

	req := asUser(postJSON(t, "/customers", map[string]any{
		"name":  "Other Person",
		"email": "REGULAR@test",
	}), f.clerk)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCustomerCreateRejectsBadEmail(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCustomerHandler(db)

	req := asUser(postJSON(t, "/customers", map[string]any{
		"name":  "Typo Person",
		"email": "not-an-email",
	}), f.clerk)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCustomerListSearch(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCustomerHandler(db)

	if err := db.Create(&models.Customer{Name: "Search Target", Phone: "9876543210"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/customers?search_query=target", nil), f.clerk)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Items []models.Customer `json:"items"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Name != "Search Target" {
		t.Fatalf("unexpected result: %+v", resp)
	}
}

func TestCustomerDeletePreservesSalesAsAnonymous(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCustomerHandler(db)

	inv := models.Invoice{CustomerID: &f.regular.ID, UserID: f.clerk.ID, Status: models.InvoiceStatusPaid}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	id := strconv.Itoa(int(f.regular.ID))
	req := asUser(httptest.NewRequest(http.MethodDelete, "/customers/"+id, nil), f.clerk)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Invoice
	if err := db.First(&got, inv.ID).Error; err != nil {
		t.Fatalf("invoice should survive: %v", err)
	}
	if got.CustomerID != nil {
		t.Fatalf("invoice still references deleted customer: %v", *got.CustomerID)
	}
}
