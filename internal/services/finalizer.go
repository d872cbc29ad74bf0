package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailbuddy/retailbuddy/internal/models"
)

// CartItem is one (product, quantity) pair submitted from the billing screen.
type CartItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// FinalizeRequest is the full cart payload. Client-supplied prices are never
// part of it: the catalog price at finalize time is authoritative.
type FinalizeRequest struct {
	CustomerID    *uint      `json:"customer_id"`
	PaymentMethod string     `json:"payment_method"`
	Items         []CartItem `json:"items"`
}

// FinalizeResult reports a persisted sale and its computed totals.
type FinalizeResult struct {
	InvoiceID  uint
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// PaymentRecorder persists the payment row for a finalized sale. The
// indirection keeps payment recording swappable (and failure-injectable).
type PaymentRecorder interface {
	Record(tx *gorm.DB, p *models.Payment) error
}

type dbPaymentRecorder struct{}

func (dbPaymentRecorder) Record(tx *gorm.DB, p *models.Payment) error {
	return tx.Create(p).Error
}

// Finalizer turns a submitted cart into a consistent, persisted sale, or
// fails cleanly with no partial effect. All persistence runs inside one
// database transaction.
type Finalizer struct {
	db       *gorm.DB
	catalog  *models.CatalogRepository
	payments PaymentRecorder
}

func NewFinalizer(db *gorm.DB) *Finalizer {
	return &Finalizer{db: db, catalog: models.NewCatalogRepository(db), payments: dbPaymentRecorder{}}
}

// WithPaymentRecorder overrides the payment collaborator.
func (f *Finalizer) WithPaymentRecorder(pr PaymentRecorder) *Finalizer {
	f.payments = pr
	return f
}

// Finalize validates the cart, computes pricing and per-category tax,
// persists the invoice with its lines, decrements stock atomically, and
// records the payment. On any failure the transaction rolls back entirely.
func (f *Finalizer) Finalize(ctx context.Context, userID uint, req FinalizeRequest) (*FinalizeResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, ErrMissingPaymentMethod
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity}
		}
	}

	var result *FinalizeResult
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := f.catalog.WithTx(tx)

		ids := make([]uint, 0, len(req.Items))
		for _, it := range req.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := catalog.ProductsByID(ids)
		if err != nil {
			return err
		}
		for _, it := range req.Items {
			if _, ok := products[it.ProductID]; !ok {
				return &ProductNotFoundError{ProductID: it.ProductID}
			}
		}

		// Collect every short item before failing so the caller gets the
		// complete breakdown in one round trip.
		var shortages []StockShortage
		for _, it := range req.Items {
			p := products[it.ProductID]
			if it.Quantity > p.StockQuantity {
				shortages = append(shortages, StockShortage{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   it.Quantity,
					Available:   p.StockQuantity,
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientStockError{Shortages: shortages}
		}

		// A supplied customer id that no longer resolves degrades to an
		// anonymous sale rather than failing the bill.
		var customerID *uint
		if req.CustomerID != nil {
			var customer models.Customer
			if err := tx.First(&customer, *req.CustomerID).Error; err == nil {
				id := customer.ID
				customerID = &id
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		// Totals at full precision; rounding happens once, at summation.
		subtotal := decimal.Zero
		tax := decimal.Zero
		lines := make([]models.InvoiceLine, 0, len(req.Items))
		for _, it := range req.Items {
			p := products[it.ProductID]
			lineSubtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)
			tax = tax.Add(lineSubtotal.Mul(decimal.NewFromFloat(p.Category.TaxPercentage)).Div(decimal.NewFromInt(100)))
			lines = append(lines, models.InvoiceLine{ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price})
		}
		subtotal = subtotal.Round(2)
		tax = tax.Round(2)
		grandTotal := subtotal.Add(tax)

		inv := models.Invoice{
			CustomerID:  customerID,
			UserID:      userID,
			InvoiceDate: time.Now(),
			Status:      models.InvoiceStatusDraft,
			Subtotal:    subtotal,
			Lines:       lines,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return &PersistenceError{Err: err}
		}

		for _, it := range req.Items {
			if err := catalog.DecrementStock(it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, models.ErrInsufficientStock) {
					// A concurrent sale won the race after our pre-check.
					p := products[it.ProductID]
					return &InsufficientStockError{Shortages: []StockShortage{{
						ProductID:   p.ID,
						ProductName: p.Name,
						Requested:   it.Quantity,
						Available:   p.StockQuantity,
					}}}
				}
				return err
			}
		}

		payment := models.Payment{
			InvoiceID: inv.ID,
			Method:    req.PaymentMethod,
			Status:    models.PaymentStatusCompleted,
			Amount:    grandTotal,
			PaidAt:    time.Now(),
		}
		if err := f.payments.Record(tx, &payment); err != nil {
			return &PaymentError{Err: err}
		}

		result = &FinalizeResult{InvoiceID: inv.ID, Subtotal: subtotal, Tax: tax, GrandTotal: grandTotal}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
