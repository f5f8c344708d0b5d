package workflow

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
)

// CustomerStatement builds the running-balance ledger view for one customer
// over a date window. Read-only, so no balance lock.
func CustomerStatement(ctx context.Context, customerId int, windowStart, windowEnd time.Time) (*ledger.Statement, error) {
	ctx, span := tracer.Start(ctx, "CustomerStatement")
	defer span.End()

	engine := ledger.New(models.NewLedgerStore(config.GetDB()), ledger.WithLogger(config.GetLogger()))
	return engine.BuildStatement(ctx, customerId, windowStart, windowEnd)
}

// CustomerDetails returns a customer's balance as of asOf, optionally
// excluding one sale. The exclusion serves the invoice edit screen: the
// balance shown next to the form must not count the invoice being edited.
func CustomerDetails(ctx context.Context, customerId int, asOf time.Time, excludeSaleId int) (*ledger.Customer, decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "CustomerDetails")
	defer span.End()

	store := models.NewLedgerStore(config.GetDB())
	engine := ledger.New(store, ledger.WithLogger(config.GetLogger()))

	customer, err := store.GetCustomer(ctx, customerId)
	if err != nil {
		return nil, decimal.Zero, err
	}
	balance, err := engine.ComputeBalance(ctx, customerId, asOf, excludeSaleId)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return customer, balance, nil
}

// MonthBucket is one row of the sales summary report.
type MonthBucket struct {
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalReceipt decimal.Decimal `json:"total_receipt"`
}

// MonthlySummary totals net sales and cash received per calendar month over
// [start, end]. Sale amounts are netted per transaction before summing, the
// same figure the ledger carries; the buckets therefore reconcile against
// customer balances.
func MonthlySummary(ctx context.Context, start, end time.Time) ([]*MonthBucket, error) {
	ctx, span := tracer.Start(ctx, "MonthlySummary")
	defer span.End()

	if end.Before(start) {
		return nil, ledger.ErrInvalidRange
	}

	db := config.GetDB()

	var sales []*models.Sale
	err := db.WithContext(ctx).Where("date >= ? AND date <= ?", start, end).Find(&sales).Error
	if err != nil {
		return nil, err
	}
	var receipts []*models.CashReceipt
	err = db.WithContext(ctx).Where("date >= ? AND date <= ?", start, end).Find(&receipts).Error
	if err != nil {
		return nil, err
	}

	return summarizeMonths(sales, receipts), nil
}

// summarizeMonths buckets sales and receipts by calendar month, netting each
// sale individually before summing.
func summarizeMonths(sales []*models.Sale, receipts []*models.CashReceipt) []*MonthBucket {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthBucket)
	bucketFor := func(date time.Time) *MonthBucket {
		k := key{date.Year(), date.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		return b
	}

	for _, sale := range sales {
		var discount decimal.Decimal
		if sale.DiscountPercent != nil {
			discount = *sale.DiscountPercent
		}
		b := bucketFor(sale.Date)
		b.TotalSales = b.TotalSales.Add(ledger.NetAmount(sale.GrossAmount, discount))
	}
	for _, receipt := range receipts {
		b := bucketFor(receipt.Date)
		b.TotalReceipt = b.TotalReceipt.Add(receipt.Amount)
	}

	result := make([]*MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result
}
