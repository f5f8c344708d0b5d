package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Bulk-loads cash receipts from an .xlsx workbook. Expected columns on
// Sheet1, first row a header: customer_id | date | amount | detail.
// The whole workbook is imported in one all-or-nothing batch.
func main() {
	filePath := flag.String("file", "", "Required: path to .xlsx workbook")
	sheet := flag.String("sheet", "Sheet1", "Worksheet name")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	if !strings.HasSuffix(*filePath, ".xlsx") {
		fmt.Fprintln(os.Stderr, "invalid file type: only .xlsx files are allowed")
		os.Exit(1)
	}

	entries, err := readEntries(*filePath, *sheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "workbook contains no data rows")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	batchId, receipts, err := workflow.ImportCashReceipts(context.Background(), entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed (nothing persisted): %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d receipt(s), batch %s, invoice no %d..%d\n",
		len(receipts), batchId, receipts[0].InvoiceNo, receipts[len(receipts)-1].InvoiceNo)
}

func readEntries(filePath, sheet string) ([]ledger.ReceiptImportEntry, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	entries := make([]ledger.ReceiptImportEntry, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		rowNo := idx + 2 // 1-based, after header

		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected customer_id, date, amount", rowNo)
		}

		customerId, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("could not parse customer id in row %d: %v", rowNo, err)
		}
		date, err := parseDate(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("could not parse date in row %d: %v", rowNo, err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("could not parse amount in row %d: %v", rowNo, err)
		}
		detail := ""
		if len(row) > 3 {
			detail = strings.TrimSpace(row[3])
		}

		entries = append(entries, ledger.ReceiptImportEntry{
			CustomerID: customerId,
			Date:       date,
			Amount:     amount,
			Detail:     detail,
		})
	}
	return entries, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "01-02-06", "1/2/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
