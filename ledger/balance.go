package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeBalance derives the customer's outstanding balance as of cutoff
// (inclusive): opening balance, plus every sale's net amount, minus every
// receipt amount. excludeSaleID, when non-zero, drops that sale from the sum
// so an invoice being edited does not double-count its own prior effect.
//
// Each sale is rounded individually before summing; the running sum itself is
// never rounded.
func (e *Engine) ComputeBalance(ctx context.Context, customerID int, cutoff time.Time, excludeSaleID int) (decimal.Decimal, error) {
	customer, err := e.source.GetCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}

	sales, err := e.source.ListSales(ctx, customerID, SaleQuery{
		DateLessOrEqual: &cutoff,
		ExcludeID:       excludeSaleID,
	})
	if err != nil {
		return decimal.Zero, err
	}

	balance := customer.OpeningBalance
	for _, sale := range sales {
		balance = balance.Add(sale.NetAmount())
	}

	receipts, err := e.source.ListReceipts(ctx, customerID, ReceiptQuery{
		DateLessOrEqual: &cutoff,
	})
	if err != nil {
		return decimal.Zero, err
	}
	for _, receipt := range receipts {
		balance = balance.Sub(receipt.Amount)
	}

	return balance, nil
}

// ResyncCustomerBalance recomputes the full-history balance as of now and
// persists it as the customer's cached balance, returning the new value.
// Every mutation of a customer's sales or receipts must be followed by a
// resync within the same unit of work; a failed resync fails the mutation.
//
// Calling it again with no intervening mutation writes the same value.
func (e *Engine) ResyncCustomerBalance(ctx context.Context, customerID int, now time.Time) (decimal.Decimal, error) {
	balance, err := e.ComputeBalance(ctx, customerID, now, 0)
	if err != nil {
		return decimal.Zero, err
	}
	if err := e.source.SetCachedBalance(ctx, customerID, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
