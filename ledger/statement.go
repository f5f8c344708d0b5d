package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// BuildStatement assembles the customer's ledger for the window
// [windowStart, windowEnd], both ends inclusive. The first entry is always
// the opening balance: everything strictly before windowStart collapsed into
// a single row. Subsequent entries carry a running balance, so the last
// entry's balance is the customer's position as of windowEnd.
func (e *Engine) BuildStatement(ctx context.Context, customerID int, windowStart, windowEnd time.Time) (*Statement, error) {
	if windowEnd.Before(windowStart) {
		return nil, ErrInvalidRange
	}

	customer, err := e.source.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// Opening cutoff is exclusive of windowStart itself; a transaction dated
	// exactly at windowStart belongs inside the window.
	openingCutoff := windowStart.Add(-time.Nanosecond)
	opening, err := e.ComputeBalance(ctx, customerID, openingCutoff, 0)
	if err != nil {
		return nil, err
	}

	sales, err := e.source.ListSales(ctx, customerID, SaleQuery{
		DateFrom: &windowStart,
		DateTo:   &windowEnd,
	})
	if err != nil {
		return nil, err
	}
	receipts, err := e.source.ListReceipts(ctx, customerID, ReceiptQuery{
		DateFrom: &windowStart,
		DateTo:   &windowEnd,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*LedgerEntry, 0, len(sales)+len(receipts)+1)
	entries = append(entries, &LedgerEntry{
		Date:        windowStart,
		Kind:        EntryKindOpening,
		Description: "Opening Balance",
		Balance:     opening,
	})

	for _, sale := range sales {
		net := sale.NetAmount()
		entries = append(entries, &LedgerEntry{
			Date:        sale.Date,
			Kind:        EntryKindSale,
			Description: fmt.Sprintf("Sales Inv. %d", sale.SaleNo),
			ReferenceNo: sale.SaleNo,
			Debit:       &net,
		})
	}
	for _, receipt := range receipts {
		amount := receipt.Amount
		entries = append(entries, &LedgerEntry{
			Date:        receipt.Date,
			Kind:        EntryKindReceipt,
			Description: fmt.Sprintf("Cash Received Inv. %d", receipt.InvoiceNo),
			ReferenceNo: receipt.InvoiceNo,
			Credit:      &amount,
		})
	}

	// Opening stays first; window entries order by date, then sales ahead of
	// receipts on the same date, then reference number.
	sort.SliceStable(entries[1:], func(i, j int) bool {
		a, b := entries[i+1], entries[j+1]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == EntryKindSale
		}
		return a.ReferenceNo < b.ReferenceNo
	})

	running := opening
	for _, entry := range entries[1:] {
		if entry.Debit != nil {
			running = running.Add(*entry.Debit)
		}
		if entry.Credit != nil {
			running = running.Sub(*entry.Credit)
		}
		entry.Balance = running
	}

	return &Statement{
		Customer: CustomerHeader{
			Name:  customer.Name,
			Area:  customer.Area,
			Group: customer.Group,
		},
		Opening: opening,
		Entries: entries,
	}, nil
}
