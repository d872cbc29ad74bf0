package models

import "time"

// Category groups products and carries the tax rate applied to every product in it.
// TaxPercentage is expressed as a percentage (0..100), not a fraction.
type Category struct {
	ID            uint    `gorm:"primaryKey"`
	Name          string  `gorm:"not null;unique"`
	Description   string
	TaxPercentage float64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
