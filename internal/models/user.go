package models

import "time"

// Staff roles. Admin unlocks category and user management.
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
)

// User is a staff account able to log in and record sales.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"unique;not null;index"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether r is a recognized staff role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleEmployee
}
