package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SaleQuery bounds a sale listing. DateLessOrEqual is an inclusive cutoff;
// DateFrom/DateTo are an inclusive window; ExcludeID drops a single sale
// (used when an invoice being edited must not count its own prior effect).
type SaleQuery struct {
	DateLessOrEqual *time.Time
	DateFrom        *time.Time
	DateTo          *time.Time
	ExcludeID       int
}

// ReceiptQuery bounds a cash receipt listing.
type ReceiptQuery struct {
	DateLessOrEqual *time.Time
	DateFrom        *time.Time
	DateTo          *time.Time
}

// Source is the engine's read/write boundary with the storage layer. The
// engine owns no persistence of its own; everything it knows about a customer
// comes through here.
//
// GetCustomer returns ErrCustomerNotFound for an unknown id. Implementations
// must apply query bounds exactly as inclusive bounds; the engine expresses
// strict cutoffs itself.
type Source interface {
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	ListSales(ctx context.Context, customerID int, q SaleQuery) ([]*SaleTransaction, error)
	ListReceipts(ctx context.Context, customerID int, q ReceiptQuery) ([]*CashReceipt, error)

	// SetCachedBalance persists the customer's derived balance. Only the
	// engine's resync path may call it.
	SetCachedBalance(ctx context.Context, customerID int, value decimal.Decimal) error

	// NextReceiptSequence returns max(existing invoiceNo)+1, or 1 when no
	// receipts exist. One global sequence, not per customer.
	NextReceiptSequence(ctx context.Context) (int64, error)

	// InsertReceipts persists a batch of receipts, filling in their IDs.
	InsertReceipts(ctx context.Context, receipts []*CashReceipt) error
}
