package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the engine's view of a customer record. OpeningBalance is the
// balance carried forward from before any tracked transaction; Balance is the
// cached derived balance and is written only through ResyncCustomerBalance.
type Customer struct {
	ID             int
	Name           string
	Area           string
	Group          string
	Phone          string
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	DiscountRate   decimal.Decimal
}

// SaleTransaction is a sale as seen by the balance math. GrossAmount is the
// bill total before discount; DiscountPercent is nil when the sale was saved
// without one (treated as 0).
type SaleTransaction struct {
	ID              int
	SaleNo          int64
	Date            time.Time
	CustomerID      int
	GrossAmount     decimal.Decimal
	DiscountPercent *decimal.Decimal
	Remarks         string
}

// NetAmount returns the sale's amount after discount, rounded once.
// This, not GrossAmount, is what flows into the ledger.
func (s *SaleTransaction) NetAmount() decimal.Decimal {
	var discount decimal.Decimal
	if s.DiscountPercent != nil {
		discount = *s.DiscountPercent
	}
	return NetAmount(s.GrossAmount, discount)
}

// CashReceipt is a cash received entry. Amount is treated as already net;
// it is never rounded.
type CashReceipt struct {
	ID            int
	InvoiceNo     int64
	Date          time.Time
	CustomerID    int
	Amount        decimal.Decimal
	Detail        string
	ImportBatchID string
}

type EntryKind string

const (
	EntryKindOpening EntryKind = "Opening"
	EntryKindSale    EntryKind = "Sale"
	EntryKindReceipt EntryKind = "Receipt"
)

// LedgerEntry is one row of a running-balance statement. Debit is set for
// sale entries, Credit for receipt entries, neither for the opening row.
// Entries are derived on demand and never persisted.
type LedgerEntry struct {
	Date        time.Time        `json:"date"`
	Kind        EntryKind        `json:"type"`
	Description string           `json:"description"`
	ReferenceNo int64            `json:"reference_no,omitempty"`
	Debit       *decimal.Decimal `json:"sales"`
	Credit      *decimal.Decimal `json:"received"`
	Balance     decimal.Decimal  `json:"balance"`
}

// CustomerHeader is the denormalized display header on a statement.
type CustomerHeader struct {
	Name  string `json:"name"`
	Area  string `json:"area"`
	Group string `json:"group"`
}

// Statement is a chronological running-balance view of a customer's ledger
// for a date window. Entries[0] is always the opening row; its balance is the
// point-in-time balance immediately before the window starts.
type Statement struct {
	Customer CustomerHeader  `json:"customer"`
	Opening  decimal.Decimal `json:"opening_balance"`
	Entries  []*LedgerEntry  `json:"entries"`
}

// ReceiptImportEntry is one row of a bulk cash receipt import.
type ReceiptImportEntry struct {
	CustomerID int             `json:"customer_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date" validate:"required"`
	Detail     string          `json:"detail"`
}
