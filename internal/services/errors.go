package services

import (
	"errors"
	"fmt"
	"strings"
)

// Finalization failure taxonomy. Every error here means the attempted sale
// left no rows behind; callers surface the message and the user may resubmit.
var (
	ErrEmptyCart            = errors.New("cannot finalize an empty bill")
	ErrMissingPaymentMethod = errors.New("payment method is required")
)

// ProductNotFoundError reports a cart item whose product id did not resolve.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("could not find product %d specified in the order", e.ProductID)
}

// InvalidQuantityError reports a non-positive requested quantity.
type InvalidQuantityError struct {
	ProductID uint
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity (%d) for product %d", e.Quantity, e.ProductID)
}

// StockShortage describes one item that could not be fulfilled.
type StockShortage struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError aggregates every short item in the cart so the
// caller sees the full breakdown, not just the first failure.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("insufficient stock for %s: requested %d, only %d available",
			s.ProductName, s.Requested, s.Available)
	}
	return strings.Join(parts, "; ")
}

// PersistenceError wraps a row save failure inside the finalize transaction.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "failed to save invoice: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// PaymentError wraps a payment record failure; the whole sale rolls back.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string { return "failed to record payment: " + e.Err.Error() }
func (e *PaymentError) Unwrap() error { return e.Err }
