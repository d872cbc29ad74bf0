package handlers

import (
	"net/http"
	"time"

	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/services"
)

// ReportHandler serves the read-only sales reports. Only paid invoices feed
// these numbers.
type ReportHandler struct {
	Svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler { return &ReportHandler{Svc: svc} }

const dateLayout = "2006-01-02"

// parseRange reads start_date/end_date query params, defaulting to the
// current month so far. end < start clamps end to start.
func parseRange(r *http.Request, now time.Time) (start, end time.Time, err error) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if v := r.URL.Query().Get("start_date"); v != "" {
		start, err = time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return start, end, err
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		end, err = time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return start, end, err
		}
	}
	if end.Before(start) {
		end = start
	}
	return start, end, nil
}

// TodaysSales: GET /reports/todays-sales
func (h *ReportHandler) TodaysSales(w http.ResponseWriter, _ *http.Request) {
	report, err := h.Svc.TodaysSales(time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_run_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// SalesByPeriod: GET /reports/sales-by-period?start_date=&end_date=
func (h *ReportHandler) SalesByPeriod(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	report, err := h.Svc.SalesByPeriod(start, end)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_run_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// TopProducts: GET /reports/top-products?sort_by=quantity|revenue
func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	rows, err := h.Svc.TopProducts(start, end, r.URL.Query().Get("sort_by"))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_run_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// SalesByCategory: GET /reports/sales-by-category
func (h *ReportHandler) SalesByCategory(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	rows, err := h.Svc.SalesByCategory(start, end)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_run_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// TopCustomers: GET /reports/top-customers
func (h *ReportHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	rows, err := h.Svc.TopCustomers(start, end)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_run_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}
