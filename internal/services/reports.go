package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

// ReportService runs read-only aggregations over paid invoices. It never
// mutates sale data.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{db: db} }

// DailySales is one day's paid revenue (tax inclusive) and transaction count.
type DailySales struct {
	Date         string          `json:"date"`
	Revenue      decimal.Decimal `json:"revenue"`
	Transactions int             `json:"transactions"`
}

// DailySalesReport summarizes a single day, with a per-method payment breakdown.
type DailySalesReport struct {
	Date           string                     `json:"date"`
	TotalRevenue   decimal.Decimal            `json:"total_revenue"`
	Transactions   int                        `json:"transactions"`
	PaymentSummary map[string]decimal.Decimal `json:"payment_summary"`
}

// PeriodSalesReport summarizes a date range day by day.
type PeriodSalesReport struct {
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	Days              []DailySales    `json:"days"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int             `json:"total_transactions"`
}

// ProductSales ranks one product by units sold and pre-tax revenue.
type ProductSales struct {
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// CategorySales is pre-tax revenue attributed to one category.
type CategorySales struct {
	CategoryName string          `json:"category_name"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// CustomerSales is pre-tax revenue attributed to one customer.
type CustomerSales struct {
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

func (s *ReportService) paidInvoicesBetween(from, toExclusive time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.
		Preload("Lines.Product.Category").
		Where("status = ? AND invoice_date >= ? AND invoice_date < ?", models.InvoiceStatusPaid, from, toExclusive).
		Order("invoice_date desc").
		Find(&invoices).Error
	return invoices, err
}

// TodaysSales reports paid revenue and the payment-method breakdown for the
// calendar day containing now.
func (s *ReportService) TodaysSales(now time.Time) (*DailySalesReport, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	invoices, err := s.paidInvoicesBetween(dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	report := &DailySalesReport{
		Date:           dayStart.Format("2006-01-02"),
		TotalRevenue:   decimal.Zero,
		Transactions:   len(invoices),
		PaymentSummary: map[string]decimal.Decimal{},
	}
	ids := make([]uint, 0, len(invoices))
	for i := range invoices {
		_, _, grand := InvoiceTotals(&invoices[i])
		report.TotalRevenue = report.TotalRevenue.Add(grand)
		ids = append(ids, invoices[i].ID)
	}
	if len(ids) > 0 {
		var payments []models.Payment
		if err := s.db.Where("invoice_id IN ?", ids).Find(&payments).Error; err != nil {
			return nil, err
		}
		for _, p := range payments {
			report.PaymentSummary[p.Method] = report.PaymentSummary[p.Method].Add(p.Amount)
		}
	}
	return report, nil
}

// SalesByPeriod groups paid invoices by day over [start, end] (whole days).
func (s *ReportService) SalesByPeriod(start, end time.Time) (*PeriodSalesReport, error) {
	if end.Before(start) {
		end = start
	}
	endExclusive := end.AddDate(0, 0, 1)

	invoices, err := s.paidInvoicesBetween(start, endExclusive)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*DailySales{}
	total := decimal.Zero
	for i := range invoices {
		day := invoices[i].InvoiceDate.Format("2006-01-02")
		_, _, grand := InvoiceTotals(&invoices[i])
		row, ok := byDay[day]
		if !ok {
			row = &DailySales{Date: day, Revenue: decimal.Zero}
			byDay[day] = row
		}
		row.Revenue = row.Revenue.Add(grand)
		row.Transactions++
		total = total.Add(grand)
	}
	days := make([]DailySales, 0, len(byDay))
	for _, row := range byDay {
		days = append(days, *row)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return &PeriodSalesReport{
		StartDate:         start.Format("2006-01-02"),
		EndDate:           end.Format("2006-01-02"),
		Days:              days,
		TotalRevenue:      total,
		TotalTransactions: len(invoices),
	}, nil
}

// TopProducts returns the ten best sellers over the range, ranked by units
// sold or by pre-tax revenue when sortBy is "revenue".
func (s *ReportService) TopProducts(start, end time.Time, sortBy string) ([]ProductSales, error) {
	if end.Before(start) {
		end = start
	}
	order := "total_quantity DESC"
	if sortBy == "revenue" {
		order = "total_revenue DESC"
	}
	var rows []ProductSales
	err := s.db.Model(&models.InvoiceLine{}).
		Joins("JOIN invoices ON invoices.id = invoice_lines.invoice_id").
		Joins("JOIN products ON products.id = invoice_lines.product_id").
		Where("invoices.status = ? AND invoices.invoice_date >= ? AND invoices.invoice_date < ?",
			models.InvoiceStatusPaid, start, end.AddDate(0, 0, 1)).
		Group("products.id, products.name").
		Select("products.id AS product_id, products.name AS product_name, " +
			"SUM(invoice_lines.quantity) AS total_quantity, " +
			"SUM(invoice_lines.quantity * invoice_lines.unit_price) AS total_revenue").
		Order(order).
		Limit(10).
		Scan(&rows).Error
	return rows, err
}

// SalesByCategory attributes pre-tax revenue to categories over the range.
func (s *ReportService) SalesByCategory(start, end time.Time) ([]CategorySales, error) {
	if end.Before(start) {
		end = start
	}
	var rows []CategorySales
	err := s.db.Model(&models.InvoiceLine{}).
		Joins("JOIN invoices ON invoices.id = invoice_lines.invoice_id").
		Joins("JOIN products ON products.id = invoice_lines.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("invoices.status = ? AND invoices.invoice_date >= ? AND invoices.invoice_date < ?",
			models.InvoiceStatusPaid, start, end.AddDate(0, 0, 1)).
		Group("categories.name").
		Select("categories.name AS category_name, " +
			"SUM(invoice_lines.quantity * invoice_lines.unit_price) AS total_revenue").
		Order("total_revenue DESC").
		Scan(&rows).Error
	return rows, err
}

// TopCustomers ranks the twenty highest-revenue customers over the range.
// Anonymous sales carry no customer and are excluded by the join.
func (s *ReportService) TopCustomers(start, end time.Time) ([]CustomerSales, error) {
	if end.Before(start) {
		end = start
	}
	var rows []CustomerSales
	err := s.db.Model(&models.InvoiceLine{}).
		Joins("JOIN invoices ON invoices.id = invoice_lines.invoice_id").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Where("invoices.status = ? AND invoices.invoice_date >= ? AND invoices.invoice_date < ?",
			models.InvoiceStatusPaid, start, end.AddDate(0, 0, 1)).
		Group("customers.id, customers.name").
		Select("customers.id AS customer_id, customers.name AS customer_name, " +
			"SUM(invoice_lines.quantity * invoice_lines.unit_price) AS total_revenue").
		Order("total_revenue DESC").
		Limit(20).
		Scan(&rows).Error
	return rows, err
}
