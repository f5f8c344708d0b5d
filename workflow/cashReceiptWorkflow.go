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

func CreateCashReceipt(ctx context.Context, input *models.NewCashReceipt) (*models.CashReceipt, error) {
	ctx, span := tracer.Start(ctx, "CreateCashReceipt")
	defer span.End()

	logger := config.GetLogger()

	if err := input.Validate(ctx, 0); err != nil {
		return nil, err
	}

	redisLock := obtainRedisBalanceLock(ctx, logger, input.CustomerId)
	defer releaseRedisBalanceLock(ctx, logger, redisLock, input.CustomerId)

	var receipt models.CashReceipt
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCustomerBalanceLock(tx, input.CustomerId); err != nil {
			return err
		}
		defer ReleaseCustomerBalanceLock(tx, input.CustomerId)

		invoiceNo, err := models.NextReceiptInvoiceNo(tx)
		if err != nil {
			return err
		}
		receipt = models.CashReceipt{
			InvoiceNo:  invoiceNo,
			Date:       input.Date,
			CustomerId: input.CustomerId,
			Amount:     input.Amount,
			Detail:     input.Detail,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}
		return resyncCustomerBalance(ctx, tx, input.CustomerId, time.Now())
	})
	if err != nil {
		config.LogError(logger, "cashReceiptWorkflow.go", "CreateCashReceipt", "Transaction", input, err)
		return nil, err
	}
	return &receipt, nil
}

// UpdateCashReceipt mirrors UpdateSale: the lock set comes from an unlocked
// read, so the row is re-read under the locks and the update retried if a
// concurrent edit reassigned it.
func UpdateCashReceipt(ctx context.Context, id int, input *models.NewCashReceipt) (*models.CashReceipt, error) {
	ctx, span := tracer.Start(ctx, "UpdateCashReceipt")
	defer span.End()

	logger := config.GetLogger()

	if err := input.Validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	for attempt := 0; attempt < ownerRetryAttempts; attempt++ {
		receipt, err := models.GetCashReceipt(ctx, id)
		if err != nil {
			return nil, err
		}

		customerIds := []int{receipt.CustomerId}
		if input.CustomerId != receipt.CustomerId {
			customerIds = append(customerIds, input.CustomerId)
		}
		sort.Ints(customerIds)

		redisLocks := obtainRedisBalanceLocks(ctx, logger, customerIds)

		var updated models.CashReceipt
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
			if updated.CustomerId != receipt.CustomerId {
				return errStaleOwner
			}

			err := tx.Model(&updated).Updates(map[string]interface{}{
				"Date":       input.Date,
				"CustomerId": input.CustomerId,
				"Amount":     input.Amount,
				"Detail":     input.Detail,
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
			config.LogError(logger, "cashReceiptWorkflow.go", "UpdateCashReceipt", "Transaction", input, err)
			return nil, err
		}
		return &updated, nil
	}
	return nil, errStaleOwner
}

func DeleteCashReceipt(ctx context.Context, id int) (*models.CashReceipt, error) {
	ctx, span := tracer.Start(ctx, "DeleteCashReceipt")
	defer span.End()

	logger := config.GetLogger()

	receipt, err := models.GetCashReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	redisLock := obtainRedisBalanceLock(ctx, logger, receipt.CustomerId)
	defer releaseRedisBalanceLock(ctx, logger, redisLock, receipt.CustomerId)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCustomerBalanceLock(tx, receipt.CustomerId); err != nil {
			return err
		}
		defer ReleaseCustomerBalanceLock(tx, receipt.CustomerId)

		if err := tx.Delete(&receipt).Error; err != nil {
			return err
		}
		return resyncCustomerBalance(ctx, tx, receipt.CustomerId, time.Now())
	})
	if err != nil {
		config.LogError(logger, "cashReceiptWorkflow.go", "DeleteCashReceipt", "Transaction", id, err)
		return nil, err
	}
	return receipt, nil
}
