package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashReceipt is a cash received voucher. InvoiceNo runs on one global
// sequence shared by manual entry and bulk import. ImportBatchId ties the
// rows of one bulk import together and stays empty for manual entries.
type CashReceipt struct {
	ID            int             `gorm:"primary_key" json:"id"`
	InvoiceNo     int64           `gorm:"uniqueIndex;not null" json:"invoice_no"`
	Date          time.Time       `gorm:"index;not null" json:"date" binding:"required"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Detail        string          `gorm:"type:text" json:"detail"`
	ImportBatchId string          `gorm:"size:36;index" json:"import_batch_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCashReceipt struct {
	Date       time.Time       `json:"date" binding:"required"`
	CustomerId int             `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Detail     string          `json:"detail"`
}

func (input *NewCashReceipt) Validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[CashReceipt](ctx, id); err != nil {
			return err
		}
	}
	if input.Date.IsZero() {
		return errors.New("date is required")
	}
	if !input.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	// customer
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	return nil
}

// NextReceiptInvoiceNo returns max(invoice_no)+1 on the given connection.
func NextReceiptInvoiceNo(tx *gorm.DB) (int64, error) {
	var maxNo int64
	err := tx.Model(&CashReceipt{}).Select("COALESCE(MAX(invoice_no), 0)").Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	return maxNo + 1, nil
}

func GetCashReceipt(ctx context.Context, id int) (*CashReceipt, error) {
	return utils.FetchSingleModel[CashReceipt](ctx, id)
}

func ListCashReceiptsByCustomer(ctx context.Context, customerId int, from, to time.Time) ([]*CashReceipt, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("customer_id = ?", customerId)
	if !from.IsZero() {
		dbCtx = dbCtx.Where("date >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("date <= ?", to)
	}
	var receipts []*CashReceipt
	err := dbCtx.Order("date ASC, invoice_no ASC").Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func ListCashReceiptsByBatch(ctx context.Context, batchId string) ([]*CashReceipt, error) {
	db := config.GetDB()
	var receipts []*CashReceipt
	err := db.WithContext(ctx).Where("import_batch_id = ?", batchId).Order("invoice_no ASC").Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
