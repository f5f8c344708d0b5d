package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"gorm.io/gorm"
)

// RebuildAllBalances resyncs every customer's cached balance from full
// history. Used after data repair and by cmd/balance-rebuild; safe to run
// any number of times. Each customer gets its own transaction and lock so a
// long rebuild never blocks normal posting for more than one customer at a
// time. Returns the number of customers resynced.
func RebuildAllBalances(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "RebuildAllBalances")
	defer span.End()

	logger := config.GetLogger()

	customers, err := models.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}

	db := config.GetDB()
	count := 0
	for _, customer := range customers {
		customerId := customer.ID

		redisLock := obtainRedisBalanceLock(ctx, logger, customerId)
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := AcquireCustomerBalanceLock(tx, customerId); err != nil {
				return err
			}
			defer ReleaseCustomerBalanceLock(tx, customerId)

			return resyncCustomerBalance(ctx, tx, customerId, time.Now())
		})
		releaseRedisBalanceLock(ctx, logger, redisLock, customerId)
		if err != nil {
			config.LogError(logger, "balanceRebuild.go", "RebuildAllBalances", "Resync", customerId, err)
			return count, err
		}
		count++
	}
	return count, nil
}
