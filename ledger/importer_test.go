package ledger_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"github.com/shopspring/decimal"
)

func TestImportReceipts_SequentialInvoiceNumbers(t *testing.T) {
	src := newFakeSource(
		&ledger.Customer{ID: 1, OpeningBalance: dec(100)},
		&ledger.Customer{ID: 2, OpeningBalance: dec(200)},
	)
	// last existing invoice no is 41
	src.receipts = []*ledger.CashReceipt{
		{ID: 1, InvoiceNo: 41, Date: date(2025, 1, 1), CustomerID: 1, Amount: dec(10)},
	}

	engine := ledger.New(src)
	entries := []ledger.ReceiptImportEntry{
		{CustomerID: 1, Amount: dec(30), Date: date(2025, 2, 1)},
		{CustomerID: 2, Amount: dec(40), Date: date(2025, 2, 1)},
		{CustomerID: 1, Amount: dec(50), Date: date(2025, 2, 2)},
	}
	receipts, err := engine.ImportReceipts(context.Background(), "batch-1", entries, date(2025, 2, 3))
	if err != nil {
		t.Fatalf("ImportReceipts: %v", err)
	}

	if len(receipts) != 3 {
		t.Fatalf("receipts = %d; want 3", len(receipts))
	}
	for i, want := range []int64{42, 43, 44} {
		if receipts[i].InvoiceNo != want {
			t.Fatalf("receipt[%d].InvoiceNo = %d; want %d", i, receipts[i].InvoiceNo, want)
		}
		if receipts[i].ImportBatchID != "batch-1" {
			t.Fatalf("receipt[%d].ImportBatchID = %q", i, receipts[i].ImportBatchID)
		}
	}

	// exactly one resync per distinct customer
	if writes := len(src.balanceWrites[1]); writes != 1 {
		t.Fatalf("customer 1 balance writes = %d; want 1", writes)
	}
	if writes := len(src.balanceWrites[2]); writes != 1 {
		t.Fatalf("customer 2 balance writes = %d; want 1", writes)
	}

	// balances reflect the imported receipts
	if got := src.customers[1].Balance; !got.Equal(dec(10)) {
		t.Fatalf("customer 1 balance = %s; want 10 (opening 100 - receipts 10+30+50)", got)
	}
	if got := src.customers[2].Balance; !got.Equal(dec(160)) {
		t.Fatalf("customer 2 balance = %s; want 160 (opening 200 - receipt 40)", got)
	}
}

func TestImportReceipts_InvalidEntryFailsWholeBatch(t *testing.T) {
	src := newFakeSource(&ledger.Customer{ID: 1, OpeningBalance: dec(100)})

	engine := ledger.New(src)
	entries := []ledger.ReceiptImportEntry{
		{CustomerID: 1, Amount: dec(30), Date: date(2025, 2, 1)},
		{CustomerID: 1, Amount: dec(0), Date: date(2025, 2, 1)}, // non-positive
	}
	_, err := engine.ImportReceipts(context.Background(), "batch-2", entries, date(2025, 2, 3))
	if !errors.Is(err, ledger.ErrInvalidReceipt) {
		t.Fatalf("err = %v; want ErrInvalidReceipt", err)
	}

	if src.insertCalls != 0 || len(src.receipts) != 0 {
		t.Fatalf("receipts persisted despite invalid batch")
	}
	if len(src.balanceWrites) != 0 {
		t.Fatalf("balances resynced despite invalid batch")
	}
}

func TestImportReceipts_UnknownCustomerFailsWholeBatch(t *testing.T) {
	src := newFakeSource(&ledger.Customer{ID: 1, OpeningBalance: dec(100)})

	engine := ledger.New(src)
	entries := []ledger.ReceiptImportEntry{
		{CustomerID: 1, Amount: dec(30), Date: date(2025, 2, 1)},
		{CustomerID: 99, Amount: dec(30), Date: date(2025, 2, 1)},
	}
	_, err := engine.ImportReceipts(context.Background(), "batch-3", entries, date(2025, 2, 3))
	if !errors.Is(err, ledger.ErrCustomerNotFound) {
		t.Fatalf("err = %v; want ErrCustomerNotFound", err)
	}
	if src.insertCalls != 0 {
		t.Fatalf("receipts persisted despite invalid batch")
	}
}

func TestImportReceipts_EmptyBatch(t *testing.T) {
	engine := ledger.New(newFakeSource())
	_, err := engine.ImportReceipts(context.Background(), "batch-4", nil, date(2025, 1, 1))
	if err != ledger.ErrEmptyBatch {
		t.Fatalf("err = %v; want ErrEmptyBatch", err)
	}
}

func TestImportReceipts_FirstSequenceIsOne(t *testing.T) {
	src := newFakeSource(&ledger.Customer{ID: 1, OpeningBalance: decimal.Zero})

	engine := ledger.New(src)
	receipts, err := engine.ImportReceipts(context.Background(), "batch-5", []ledger.ReceiptImportEntry{
		{CustomerID: 1, Amount: dec(10), Date: date(2025, 1, 1)},
	}, date(2025, 1, 2))
	if err != nil {
		t.Fatalf("ImportReceipts: %v", err)
	}
	if receipts[0].InvoiceNo != 1 {
		t.Fatalf("InvoiceNo = %d; want 1", receipts[0].InvoiceNo)
	}
}
