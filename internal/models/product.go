package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. StockQuantity is mutated only by the
// sale finalizer (atomic decrement) and by manual edits.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"not null;index"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID    uint            `gorm:"not null;index"`
	Category      Category        `gorm:"foreignKey:CategoryID"`
	StockQuantity int             `gorm:"not null;default:0"`
	Inventory     *Inventory      `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Inventory holds warehouse metadata for one product. It does not affect
// pricing or stock checks; ReorderLevel only drives low-stock reporting.
type Inventory struct {
	ID                uint `gorm:"primaryKey"`
	ProductID         uint `gorm:"not null;uniqueIndex"`
	ReorderLevel      int  `gorm:"not null;default:10"`
	WarehouseLocation string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Inventory) TableName() string { return "inventories" }

// LowStock reports whether current stock has fallen to or below the reorder level.
func (p *Product) LowStock() bool {
	if p.Inventory == nil {
		return false
	}
	return p.StockQuantity <= p.Inventory.ReorderLevel
}
