package workflow

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportCashReceipts runs a bulk receipt batch end to end: one transaction,
// balance locks for every customer in the batch (sorted by id so concurrent
// imports cannot deadlock), all-or-nothing. Returns the batch id and the
// persisted receipts.
func ImportCashReceipts(ctx context.Context, entries []ledger.ReceiptImportEntry) (string, []*ledger.CashReceipt, error) {
	ctx, span := tracer.Start(ctx, "ImportCashReceipts")
	defer span.End()

	logger := config.GetLogger()
	batchId := uuid.NewString()

	customerIds := make([]int, 0, len(entries))
	for _, entry := range entries {
		customerIds = append(customerIds, entry.CustomerID)
	}
	customerIds = utils.UniqueSlice(customerIds)
	sort.Ints(customerIds)

	redisLocks := obtainRedisBalanceLocks(ctx, logger, customerIds)
	defer releaseRedisBalanceLocks(ctx, logger, redisLocks, customerIds)

	var receipts []*ledger.CashReceipt
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, customerId := range customerIds {
			if err := AcquireCustomerBalanceLock(tx, customerId); err != nil {
				return err
			}
			defer ReleaseCustomerBalanceLock(tx, customerId)
		}

		engine := ledger.New(models.NewLedgerStore(tx), ledger.WithLogger(logger))
		var err error
		receipts, err = engine.ImportReceipts(ctx, batchId, entries, time.Now())
		return err
	})
	if err != nil {
		config.LogError(logger, "bulkImportWorkflow.go", "ImportCashReceipts", "Transaction", batchId, err)
		return "", nil, err
	}
	return batchId, receipts, nil
}
