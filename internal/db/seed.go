package db

import (
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

// Seed inserts a small demo data set (staff, catalog, customers). Inserts are
// idempotent: rows are looked up by their natural key before creation.
func Seed(db *gorm.DB) error {
	users := []struct {
		name, email, role, password string
	}{
		{"Admin User", "admin@retailbuddy.com", models.RoleAdmin, "password123"},
		{"Staff User", "staff@retailbuddy.com", models.RoleEmployee, "password123"},
	}
	for _, u := range users {
		var existing models.User
		if err := db.Where("email = ?", u.email).First(&existing).Error; err == nil {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := db.Create(&models.User{Name: u.name, Email: u.email, Role: u.role, PasswordHash: string(hash)}).Error; err != nil {
			return err
		}
	}

	categories := []models.Category{
		{Name: "Electronics", Description: "Gadgets and devices", TaxPercentage: 18.0},
		{Name: "Accessories", Description: "Tech accessories", TaxPercentage: 12.0},
		{Name: "Furniture", Description: "Office furniture", TaxPercentage: 5.0},
	}
	catByName := map[string]uint{}
	for _, c := range categories {
		var existing models.Category
		if err := db.Where("name = ?", c.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&c).Error; err != nil {
				return err
			}
			existing = c
		}
		catByName[existing.Name] = existing.ID
	}

	products := []struct {
		name     string
		price    string
		stock    int
		category string
		reorder  int
		location string
	}{
		{"Wireless Keyboard", "1299.00", 45, "Electronics", 10, "A1"},
		{"USB-C Hub", "2499.00", 30, "Accessories", 5, "B2"},
		{"Monitor Stand", "899.00", 8, "Furniture", 10, "C3"},
		{"Mechanical Keyboard", "3499.00", 22, "Electronics", 8, "A2"},
		{"Laptop Bag", "1199.00", 15, "Accessories", 5, "B1"},
		{"Desk Lamp", "599.00", 3, "Furniture", 10, "C1"},
	}
	for _, p := range products {
		var existing models.Product
		if err := db.Where("name = ?", p.name).First(&existing).Error; err == nil {
			continue
		}
		prod := models.Product{
			Name:          p.name,
			Price:         decimal.RequireFromString(p.price),
			CategoryID:    catByName[p.category],
			StockQuantity: p.stock,
			Inventory:     &models.Inventory{ReorderLevel: p.reorder, WarehouseLocation: p.location},
		}
		if err := db.Create(&prod).Error; err != nil {
			return err
		}
	}

	customers := []models.Customer{
		{Name: "Priya Sharma", Email: "priya.sharma@example.com", Phone: "+919876543210", Address: "12/A, MG Road, Koramangala, Bengaluru, 560034"},
		{Name: "Amit Patel", Email: "amit.patel@email.net", Phone: "9123456789", Address: "Flat 5B, Green View Apartments, Jayanagar 4th Block, Bengaluru, 560011"},
		{Name: "Sneha Reddy", Email: "s.reddy@domain.org", Phone: "+917778889990", Address: "Plot No. 45, HSR Layout Sector 2, Bengaluru, 560102"},
	}
	for _, c := range customers {
		var existing models.Customer
		if err := db.Where("email = ?", c.Email).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&c).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
