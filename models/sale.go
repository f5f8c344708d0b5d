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

// Sale is a single invoice total. GrossAmount is the bill before discount;
// DiscountPercent stays NULL when the sale was entered without one.
type Sale struct {
	ID              int              `gorm:"primary_key" json:"id"`
	SaleNo          int64            `gorm:"uniqueIndex;not null" json:"sale_no"`
	Date            time.Time        `gorm:"index;not null" json:"date" binding:"required"`
	CustomerId      int              `gorm:"index;not null" json:"customer_id" binding:"required"`
	GrossAmount     decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"gross_amount"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(20,4)" json:"discount_percent"`
	Remarks         string           `gorm:"type:text" json:"remarks"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	Date            time.Time        `json:"date" binding:"required"`
	CustomerId      int              `json:"customer_id" binding:"required"`
	GrossAmount     decimal.Decimal  `json:"gross_amount"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	Remarks         string           `json:"remarks"`
}

func (input *NewSale) Validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Sale](ctx, id); err != nil {
			return err
		}
	}
	if input.Date.IsZero() {
		return errors.New("date is required")
	}
	if input.GrossAmount.IsNegative() {
		return errors.New("gross amount must not be negative")
	}
	// customer
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	return nil
}

// NextSaleNo returns max(sale_no)+1 on the given connection, so the caller's
// transaction sees its own uncommitted rows. Gaps from deleted sales are
// never reused backwards.
func NextSaleNo(tx *gorm.DB) (int64, error) {
	var maxNo int64
	err := tx.Model(&Sale{}).Select("COALESCE(MAX(sale_no), 0)").Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	return maxNo + 1, nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchSingleModel[Sale](ctx, id)
}

func ListSalesByCustomer(ctx context.Context, customerId int, from, to time.Time) ([]*Sale, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("customer_id = ?", customerId)
	if !from.IsZero() {
		dbCtx = dbCtx.Where("date >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("date <= ?", to)
	}
	var sales []*Sale
	err := dbCtx.Order("date ASC, sale_no ASC").Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
