package ledger_test

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"github.com/shopspring/decimal"
)

// fakeSource is an in-memory ledger.Source. It records every cached-balance
// write so tests can assert how often the resync path ran.
type fakeSource struct {
	customers map[int]*ledger.Customer
	sales     []*ledger.SaleTransaction
	receipts  []*ledger.CashReceipt

	balanceWrites map[int][]decimal.Decimal
	insertCalls   int
}

func newFakeSource(customers ...*ledger.Customer) *fakeSource {
	s := &fakeSource{
		customers:     map[int]*ledger.Customer{},
		balanceWrites: map[int][]decimal.Decimal{},
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	return s
}

func (s *fakeSource) GetCustomer(ctx context.Context, id int) (*ledger.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, ledger.ErrCustomerNotFound
	}
	copied := *c
	return &copied, nil
}

func inWindow(date time.Time, lessOrEqual, from, to *time.Time) bool {
	if lessOrEqual != nil && date.After(*lessOrEqual) {
		return false
	}
	if from != nil && date.Before(*from) {
		return false
	}
	if to != nil && date.After(*to) {
		return false
	}
	return true
}

func (s *fakeSource) ListSales(ctx context.Context, customerID int, q ledger.SaleQuery) ([]*ledger.SaleTransaction, error) {
	var result []*ledger.SaleTransaction
	for _, sale := range s.sales {
		if sale.CustomerID != customerID {
			continue
		}
		if q.ExcludeID != 0 && sale.ID == q.ExcludeID {
			continue
		}
		if !inWindow(sale.Date, q.DateLessOrEqual, q.DateFrom, q.DateTo) {
			continue
		}
		result = append(result, sale)
	}
	return result, nil
}

func (s *fakeSource) ListReceipts(ctx context.Context, customerID int, q ledger.ReceiptQuery) ([]*ledger.CashReceipt, error) {
	var result []*ledger.CashReceipt
	for _, receipt := range s.receipts {
		if receipt.CustomerID != customerID {
			continue
		}
		if !inWindow(receipt.Date, q.DateLessOrEqual, q.DateFrom, q.DateTo) {
			continue
		}
		result = append(result, receipt)
	}
	return result, nil
}

func (s *fakeSource) SetCachedBalance(ctx context.Context, customerID int, value decimal.Decimal) error {
	c, ok := s.customers[customerID]
	if !ok {
		return ledger.ErrCustomerNotFound
	}
	c.Balance = value
	s.balanceWrites[customerID] = append(s.balanceWrites[customerID], value)
	return nil
}

func (s *fakeSource) NextReceiptSequence(ctx context.Context) (int64, error) {
	var maxNo int64
	for _, receipt := range s.receipts {
		if receipt.InvoiceNo > maxNo {
			maxNo = receipt.InvoiceNo
		}
	}
	return maxNo + 1, nil
}

func (s *fakeSource) InsertReceipts(ctx context.Context, receipts []*ledger.CashReceipt) error {
	s.insertCalls++
	for i, receipt := range receipts {
		receipt.ID = len(s.receipts) + i + 1
	}
	s.receipts = append(s.receipts, receipts...)
	return nil
}
