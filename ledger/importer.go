package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// ImportReceipts records a batch of cash receipts in one pass. The whole
// batch is validated up front and rejected on the first bad row; nothing is
// written unless every entry passes. Invoice numbers are assigned
// sequentially from the source's next sequence, in the order the entries
// were given. After the insert each distinct customer is resynced once, in
// first-seen order.
func (e *Engine) ImportReceipts(ctx context.Context, batchID string, entries []ReceiptImportEntry, now time.Time) ([]*CashReceipt, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	for i := range entries {
		entry := &entries[i]
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w: %v", i, ErrInvalidReceipt, err)
		}
		if !entry.Amount.IsPositive() {
			return nil, fmt.Errorf("entry %d: %w: amount must be positive", i, ErrInvalidReceipt)
		}
		if _, err := e.source.GetCustomer(ctx, entry.CustomerID); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	nextNo, err := e.source.NextReceiptSequence(ctx)
	if err != nil {
		return nil, err
	}

	receipts := make([]*CashReceipt, 0, len(entries))
	customerOrder := make([]int, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for i := range entries {
		entry := &entries[i]
		receipts = append(receipts, &CashReceipt{
			InvoiceNo:     nextNo + int64(i),
			Date:          entry.Date,
			CustomerID:    entry.CustomerID,
			Amount:        entry.Amount,
			Detail:        entry.Detail,
			ImportBatchID: batchID,
		})
		if !seen[entry.CustomerID] {
			seen[entry.CustomerID] = true
			customerOrder = append(customerOrder, entry.CustomerID)
		}
	}

	if err := e.source.InsertReceipts(ctx, receipts); err != nil {
		return nil, err
	}

	for _, customerID := range customerOrder {
		if _, err := e.ResyncCustomerBalance(ctx, customerID, now); err != nil {
			e.logger.WithFields(logrus.Fields{
				"module":     "ledger",
				"function":   "ImportReceipts",
				"batchId":    batchID,
				"customerId": customerID,
			}).Error(err)
			return nil, fmt.Errorf("resync customer %d: %w", customerID, err)
		}
	}

	return receipts, nil
}
