package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

// UpdateCustomer applies the edit and resyncs the cached balance in the same
// locked transaction, since a changed opening balance shifts every derived
// figure. A failed resync rolls the edit back; the edit itself never writes
// Balance directly.
func UpdateCustomer(ctx context.Context, id int, input *models.NewCustomer) (*models.Customer, error) {
	ctx, span := tracer.Start(ctx, "UpdateCustomer")
	defer span.End()

	logger := config.GetLogger()

	if err := input.Validate(ctx, id); err != nil {
		return nil, err
	}

	redisLock := obtainRedisBalanceLock(ctx, logger, id)
	defer releaseRedisBalanceLock(ctx, logger, redisLock, id)

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCustomerBalanceLock(tx, id); err != nil {
			return err
		}
		defer ReleaseCustomerBalanceLock(tx, id)

		var customer models.Customer
		if err := tx.First(&customer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		err := tx.Model(&customer).Updates(map[string]interface{}{
			"Name":           input.Name,
			"Phone":          input.Phone,
			"AreaId":         input.AreaId,
			"OpeningBalance": input.OpeningBalance,
			"DiscountRate":   input.DiscountRate,
		}).Error
		if err != nil {
			return err
		}

		return resyncCustomerBalance(ctx, tx, id, time.Now())
	})
	if err != nil {
		config.LogError(logger, "customerWorkflow.go", "UpdateCustomer", "Transaction", input, err)
		return nil, err
	}

	// return the fresh row so the caller sees the resynced balance
	return models.GetCustomer(ctx, id)
}
