package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

func TestGeneratedEmail(t *testing.T) {
	cases := []struct {
		name, role, want string
	}{
		{"Jane Doe", models.RoleAdmin, "jane-doe@admin.retailbuddy.com"},
		{"Bob O'Neil", models.RoleEmployee, "bob-o-neil@employee.retailbuddy.com"},
		{"  Spaced  Out  ", models.RoleEmployee, "spaced-out@employee.retailbuddy.com"},
	}
	for _, c := range cases {
		if got := generatedEmail(c.name, c.role); got != c.want {
			t.Fatalf("generatedEmail(%q, %q) = %q, want %q", c.name, c.role, got, c.want)
		}
	}
}

func TestUserCreateGeneratesEmailWhenOmitted(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewUserHandler(db)

	req := asUser(postJSON(t, "/admin/users", map[string]any{
		"name":     "New Hire",
		"role":     models.RoleEmployee,
		"password": "changeme1",
	}), f.admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Email != "new-hire@employee.retailbuddy.com" {
		t.Fatalf("email = %q", created.Email)
	}

	// hash stored, not the password, and never serialized
	var stored models.User
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("changeme1")) != nil {
		t.Fatal("stored hash does not match password")
	}
	if b, _ := json.Marshal(created); jsonHasKey(b, "password_hash") {
		t.Fatal("password hash leaked in JSON")
	}
}

func jsonHasKey(b []byte, key string) bool {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewUserHandler(db)

	req := asUser(postJSON(t, "/admin/users", map[string]any{
		"name":     "Sneaky",
		"role":     "Superuser",
		"password": "x",
	}), f.admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserDeleteRefusedWhileSalesExist(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewUserHandler(db)
	finalizeCart(t, db, f, 1)

	id := strconv.Itoa(int(f.clerk.ID))
	req := asUser(httptest.NewRequest(http.MethodDelete, "/admin/users/"+id, nil), f.admin)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserUpdateKeepsPasswordWhenBlank(t *testing.T) {
	db := setupTestDB(t)
	f := seedStore(t, db)
	h := NewUserHandler(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("original"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", f.clerk.ID).
		UpdateColumn("password_hash", string(hash)).Error; err != nil {
		t.Fatalf("set hash: %v", err)
	}

	id := strconv.Itoa(int(f.clerk.ID))
	req := asUser(postJSON(t, "/admin/users/"+id, map[string]any{
		"name": "Renamed Clerk",
		"role": models.RoleEmployee,
	}), f.admin)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.User
	if err := db.First(&got, f.clerk.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Name != "Renamed Clerk" {
		t.Fatalf("name = %q", got.Name)
	}
	if bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("original")) != nil {
		t.Fatal("password changed on blank update")
	}
}
