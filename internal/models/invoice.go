package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice lifecycle. A sale is created as draft and flips to paid the first
// time its receipt is rendered; cancelled is a manual back-office transition.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice is a finalized bill. It exclusively owns its lines and payments;
// products and customers are referenced, never owned.
type Invoice struct {
	ID          uint            `gorm:"primaryKey"`
	CustomerID  *uint           `gorm:"index"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID"`
	UserID      uint            `gorm:"not null;index"`
	InvoiceDate time.Time       `gorm:"not null;index"`
	Status      string          `gorm:"size:20;not null;default:'draft';index"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Lines       []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments    []Payment       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeSave keeps the stored subtotal consistent with the lines being saved.
// Saves that carry no lines (status flips, partial updates) leave it untouched.
func (inv *Invoice) BeforeSave(_ *gorm.DB) error {
	if len(inv.Lines) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, l := range inv.Lines {
		sum = sum.Add(l.Subtotal())
	}
	inv.Subtotal = sum.Round(2)
	return nil
}

// InvoiceLine records one product sold on an invoice. UnitPrice is the catalog
// price captured at sale time and never tracks later price edits.
type InvoiceLine struct {
	ID        uint            `gorm:"primaryKey"`
	InvoiceID uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal is quantity times the captured unit price, pre-tax.
func (l InvoiceLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Tax computes this line's tax for the given percentage rate at full precision.
func (l InvoiceLine) Tax(taxPercentage float64) decimal.Decimal {
	return l.Subtotal().Mul(decimal.NewFromFloat(taxPercentage)).Div(decimal.NewFromInt(100))
}
