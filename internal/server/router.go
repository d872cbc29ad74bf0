package server

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/auth"
	"github.com/retailbuddy/retailbuddy/internal/handlers"
	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/middleware"
	"github.com/retailbuddy/retailbuddy/internal/models"
	"github.com/retailbuddy/retailbuddy/internal/policy"
	"github.com/retailbuddy/retailbuddy/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(policy.RequireAdmin(h)))
	}

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Sessions
	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)

	// Billing: finalize and receipts
	ih := handlers.NewInvoiceHandler(db, services.NewFinalizer(db))
	mux.Handle("POST /invoices", protected(ih.Create))
	mux.Handle("GET /invoices", protected(ih.List))
	mux.Handle("GET /invoices/{id}", protected(ih.Show))
	mux.Handle("GET /invoices/{id}/printable", protected(ih.Printable))

	// Catalog
	ph := handlers.NewProductHandler(db)
	mux.Handle("GET /products", protected(ph.List))
	mux.Handle("POST /products", protected(ph.Create))
	mux.Handle("GET /products/search", protected(ph.Search))
	mux.Handle("GET /products/{id}", protected(ph.Get))
	mux.Handle("PUT /products/{id}", protected(ph.Update))
	mux.Handle("DELETE /products/{id}", protected(ph.Delete))

	// Categories: reads for everyone, writes behind the admin gate
	ch := handlers.NewCategoryHandler(db)
	mux.Handle("GET /categories", protected(ch.List))
	mux.Handle("GET /categories/{id}", protected(ch.Get))
	mux.Handle("POST /categories", adminOnly(ch.Create))
	mux.Handle("PUT /categories/{id}", adminOnly(ch.Update))
	mux.Handle("DELETE /categories/{id}", adminOnly(ch.Delete))

	// Customers
	cuh := handlers.NewCustomerHandler(db)
	mux.Handle("GET /customers", protected(cuh.List))
	mux.Handle("POST /customers", protected(cuh.Create))
	mux.Handle("GET /customers/{id}", protected(cuh.Get))
	mux.Handle("PUT /customers/{id}", protected(cuh.Update))
	mux.Handle("DELETE /customers/{id}", protected(cuh.Delete))

	// Stock overview
	invh := handlers.NewInventoryHandler(db)
	mux.Handle("GET /inventory", protected(invh.List))

	// Staff management (admin console)
	uh := handlers.NewUserHandler(db)
	mux.Handle("GET /admin/users", adminOnly(uh.List))
	mux.Handle("POST /admin/users", adminOnly(uh.Create))
	mux.Handle("PUT /admin/users/{id}", adminOnly(uh.Update))
	mux.Handle("DELETE /admin/users/{id}", adminOnly(uh.Delete))

	// Reports (read-only)
	rh := handlers.NewReportHandler(services.NewReportService(db))
	mux.Handle("GET /reports/todays-sales", protected(rh.TodaysSales))
	mux.Handle("GET /reports/sales-by-period", protected(rh.SalesByPeriod))
	mux.Handle("GET /reports/top-products", protected(rh.TopProducts))
	mux.Handle("GET /reports/sales-by-category", protected(rh.SalesByCategory))
	mux.Handle("GET /reports/top-customers", protected(rh.TopCustomers))

	return middleware.NoStore(withRecover(mux))
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
