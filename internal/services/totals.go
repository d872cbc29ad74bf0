package services

import (
	"github.com/shopspring/decimal"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

// InvoiceTotals computes subtotal, total tax, and grand total for a persisted
// invoice. Lines must be preloaded with Product.Category. Line subtotal and
// tax stay at full precision until summed; the sums are rounded to 2 places.
func InvoiceTotals(inv *models.Invoice) (subtotal, tax, grandTotal decimal.Decimal) {
	subtotal = decimal.Zero
	tax = decimal.Zero
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.Subtotal())
		tax = tax.Add(l.Tax(l.Product.Category.TaxPercentage))
	}
	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	grandTotal = subtotal.Add(tax)
	return subtotal, tax, grandTotal
}
