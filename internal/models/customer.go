package models

import "time"

// Customer is optional on a sale; walk-in sales carry no customer reference.
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	Email     string `gorm:"index"`
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
