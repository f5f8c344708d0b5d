package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	Phone          string          `gorm:"size:20" json:"phone"`
	AreaId         int             `gorm:"index" json:"area_id"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	DiscountRate   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_rate"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name           string          `json:"name" binding:"required"`
	Phone          string          `json:"phone"`
	AreaId         int             `json:"area_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewCustomer) Validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Customer](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, "MM"); err != nil {
			return err
		}
	}
	// area
	if input.AreaId > 0 {
		if err := utils.ValidateResourceId[Area](ctx, input.AreaId); err != nil {
			return errors.New("area not found")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {

	if err := input.Validate(ctx, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:           input.Name,
		Phone:          input.Phone,
		AreaId:         input.AreaId,
		OpeningBalance: input.OpeningBalance,
		Balance:        input.OpeningBalance,
		DiscountRate:   input.DiscountRate,
		IsActive:       utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&customer).Error
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {

	customer, err := utils.FetchSingleModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't delete customers with transactions
	saleCount, err := utils.ResourceCountWhere[Sale](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if saleCount > 0 {
		return nil, errors.New("customer has sales")
	}
	receiptCount, err := utils.ResourceCountWhere[CashReceipt](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if receiptCount > 0 {
		return nil, errors.New("customer has cash receipts")
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&customer).Error
	if err != nil {
		return nil, err
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchSingleModel[Customer](ctx, id)
}

func ListCustomers(ctx context.Context) ([]*Customer, error) {
	db := config.GetDB()
	var customers []*Customer
	err := db.WithContext(ctx).Order("name ASC").Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {

	customer, err := utils.FetchSingleModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&customer).Update("is_active", isActive).Error
	if err != nil {
		return nil, err
	}
	return customer, nil
}
