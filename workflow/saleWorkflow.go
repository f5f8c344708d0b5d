package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"gorm.io/gorm"
)

func CreateSale(ctx context.Context, input *models.NewSale) (*models.Sale, error) {
	ctx, span := tracer.Start(ctx, "CreateSale")
	defer span.End()

	logger := config.GetLogger()

	if err := input.Validate(ctx, 0); err != nil {
		return nil, err
	}

	redisLock := obtainRedisBalanceLock(ctx, logger, input.CustomerId)
	defer releaseRedisBalanceLock(ctx, logger, redisLock, input.CustomerId)

	var sale models.Sale
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCustomerBalanceLock(tx, input.CustomerId); err != nil {
			return err
		}
		defer ReleaseCustomerBalanceLock(tx, input.CustomerId)

		saleNo, err := models.NextSaleNo(tx)
		if err != nil {
			return err
		}
		sale = models.Sale{
			SaleNo:          saleNo,
			Date:            input.Date,
			CustomerId:      input.CustomerId,
			GrossAmount:     input.GrossAmount,
			DiscountPercent: input.DiscountPercent,
			Remarks:         input.Remarks,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		return resyncCustomerBalance(ctx, tx, input.CustomerId, time.Now())
	})
	if err != nil {
		config.LogError(logger, "saleWorkflow.go", "CreateSale", "Transaction", input, err)
		return nil, err
	}
	return &sale, nil
}

// UpdateSale keeps the stored SaleNo; only the editable fields move. When the
// sale changes hands both the old and the new customer are resynced in the
// same transaction, under both locks (ordered by id to avoid deadlock). The
// lock set comes from an unlocked read, so the row is re-read under the locks
// and the update retried with fresh locks if a concurrent edit moved it.
func UpdateSale(ctx context.Context, id int, input *models.NewSale) (*models.Sale, error) {
	ctx, span := tracer.Start(ctx, "UpdateSale")
	defer span.End()

	logger := config.GetLogger()

	if err := input.Validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	for attempt := 0; attempt < ownerRetryAttempts; attempt++ {
		sale, err := models.GetSale(ctx, id)
		if err != nil {
			return nil, err
		}

		customerIds := []int{sale.CustomerId}
		if input.CustomerId != sale.CustomerId {
			customerIds = append(customerIds, input.CustomerId)
		}
		sort.Ints(customerIds)

		redisLocks := obtainRedisBalanceLocks(ctx, logger, customerIds)

		var updated models.Sale
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, customerId := range customerIds {
				if err := AcquireCustomerBalanceLock(tx, customerId); err != nil {
					return err
				}
				defer ReleaseCustomerBalanceLock(tx, customerId)
			}

			if err := tx.First(&updated, id).Error; err != nil {
				return err
			}
			if updated.CustomerId != sale.CustomerId {
				return errStaleOwner
			}

			err := tx.Model(&updated).Updates(map[string]interface{}{
				"Date":            input.Date,
				"CustomerId":      input.CustomerId,
				"GrossAmount":     input.GrossAmount,
				"DiscountPercent": input.DiscountPercent,
				"Remarks":         input.Remarks,
			}).Error
			if err != nil {
				return err
			}

			now := time.Now()
			for _, customerId := range customerIds {
				if err := resyncCustomerBalance(ctx, tx, customerId, now); err != nil {
					return err
				}
			}
			return nil
		})
		releaseRedisBalanceLocks(ctx, logger, redisLocks, customerIds)

		if errors.Is(err, errStaleOwner) {
			continue
		}
		if err != nil {
			config.LogError(logger, "saleWorkflow.go", "UpdateSale", "Transaction", input, err)
			return nil, err
		}
		return &updated, nil
	}
	return nil, errStaleOwner
}

func DeleteSale(ctx context.Context, id int) (*models.Sale, error) {
	ctx, span := tracer.Start(ctx, "DeleteSale")
	defer span.End()

	logger := config.GetLogger()

	sale, err := models.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	redisLock := obtainRedisBalanceLock(ctx, logger, sale.CustomerId)
	defer releaseRedisBalanceLock(ctx, logger, redisLock, sale.CustomerId)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCustomerBalanceLock(tx, sale.CustomerId); err != nil {
			return err
		}
		defer ReleaseCustomerBalanceLock(tx, sale.CustomerId)

		if err := tx.Delete(&sale).Error; err != nil {
			return err
		}
		return resyncCustomerBalance(ctx, tx, sale.CustomerId, time.Now())
	})
	if err != nil {
		config.LogError(logger, "saleWorkflow.go", "DeleteSale", "Transaction", id, err)
		return nil, err
	}
	return sale, nil
}
