package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentStatusCompleted = "Completed"

// Payment records how an invoice was settled. It is created only after the
// invoice and its lines are durably saved, inside the same transaction.
type Payment struct {
	ID        uint            `gorm:"primaryKey"`
	InvoiceID uint            `gorm:"not null;index"`
	Method    string          `gorm:"size:40;not null"`
	Status    string          `gorm:"size:20;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAt    time.Time       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
