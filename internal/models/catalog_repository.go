package models

import (
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product id does not resolve.
var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock is returned when a conditional stock decrement matches
// no row, i.e. a concurrent sale consumed the stock first.
var ErrInsufficientStock = errors.New("insufficient stock")

var searchSanitizer = regexp.MustCompile(`[%_\\]`)

// CatalogRepository bundles the product lookups the billing flow depends on.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

// ProductsByID resolves products (with category, for tax rates) keyed by id.
// Missing ids are simply absent from the map; callers decide how to fail.
func (r *CatalogRepository) ProductsByID(ids []uint) (map[uint]Product, error) {
	var products []Product
	if err := r.db.Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// DecrementStock subtracts qty from a product's stock as a single conditional
// update so concurrent sales of the same product cannot lose updates or drive
// the counter negative. Returns ErrInsufficientStock when the guard fails.
func (r *CatalogRepository) DecrementStock(productID uint, qty int) error {
	res := r.db.Model(&Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err == nil && count == 0 {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// Search returns products matching the query by name (case-insensitive),
// newest first when the query is blank. Used by the billing screen.
func (r *CatalogRepository) Search(query string, limit int) ([]Product, error) {
	q := strings.TrimSpace(query)
	dbq := r.db.Preload("Category").Preload("Inventory")
	if q == "" {
		dbq = dbq.Order("created_at desc").Limit(5)
	} else {
		safe := searchSanitizer.ReplaceAllString(q, "")
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(safe)+"%").
			Order("lower(name)").Limit(limit)
	}
	var products []Product
	if err := dbq.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
