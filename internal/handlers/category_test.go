package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

func TestCategoryCreate(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCategoryHandler(db)

	req := asUser(postJSON(t, "/categories", map[string]any{
		"name":           "Groceries",
		"description":    "Daily essentials",
		"tax_percentage": 5.0,
	}), f.admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Name != "Groceries" || created.TaxPercentage != 5 {
		t.Fatalf("unexpected category: %+v", created)
	}
}

func TestCategoryCreateRejectsOutOfRangeTax(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCategoryHandler(db)

	req := asUser(postJSON(t, "/categories", map[string]any{
		"name":           "Luxury",
		"tax_percentage": 120.0,
	}), f.admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCategoryHandler(db)

	req := asUser(postJSON(t, "/categories", map[string]any{
		"name":           "Electronics",
		"tax_percentage": 18.0,
	}), f.admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryDeleteRefusedWhileProductsExist(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCategoryHandler(db)

	id := strconv.Itoa(int(f.kb.CategoryID))
	req := asUser(httptest.NewRequest(http.MethodDelete, "/categories/"+id, nil), f.admin)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("category should survive: count=%d err=%v", count, err)
	}
}

func TestCategoryUpdateChangesTaxForFutureSalesOnly(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewCategoryHandler(db)

	id := strconv.Itoa(int(f.kb.CategoryID))
	req := asUser(postJSON(t, "/categories/"+id, map[string]any{
		"name":           "Electronics",
		"tax_percentage": 12.0,
	}), f.admin)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cat models.Category
	if err := db.First(&cat, f.kb.CategoryID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cat.TaxPercentage != 12 {
		t.Fatalf("tax = %v", cat.TaxPercentage)
	}
}
