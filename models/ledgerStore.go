package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerStore implements ledger.Source over a gorm connection. Bind it to
// the enclosing transaction (NewLedgerStore(tx)) so the engine reads the
// same snapshot the mutation wrote.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) GetCustomer(ctx context.Context, id int) (*ledger.Customer, error) {
	var customer Customer
	err := s.db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, err
	}

	areaName, groupName := "", ""
	if customer.AreaId > 0 {
		var area Area
		if err := s.db.WithContext(ctx).First(&area, customer.AreaId).Error; err == nil {
			areaName = area.Name
			var group AreaGroup
			if err := s.db.WithContext(ctx).First(&group, area.GroupId).Error; err == nil {
				groupName = group.Name
			}
		}
	}

	return &ledger.Customer{
		ID:             customer.ID,
		Name:           customer.Name,
		Area:           areaName,
		Group:          groupName,
		Phone:          customer.Phone,
		OpeningBalance: customer.OpeningBalance,
		Balance:        customer.Balance,
		DiscountRate:   customer.DiscountRate,
	}, nil
}

func (s *LedgerStore) ListSales(ctx context.Context, customerID int, q ledger.SaleQuery) ([]*ledger.SaleTransaction, error) {
	dbCtx := s.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if q.DateLessOrEqual != nil {
		dbCtx = dbCtx.Where("date <= ?", *q.DateLessOrEqual)
	}
	if q.DateFrom != nil {
		dbCtx = dbCtx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		dbCtx = dbCtx.Where("date <= ?", *q.DateTo)
	}
	if q.ExcludeID != 0 {
		dbCtx = dbCtx.Where("id <> ?", q.ExcludeID)
	}

	var sales []*Sale
	if err := dbCtx.Order("date ASC, sale_no ASC").Find(&sales).Error; err != nil {
		return nil, err
	}

	result := make([]*ledger.SaleTransaction, 0, len(sales))
	for _, sale := range sales {
		result = append(result, &ledger.SaleTransaction{
			ID:              sale.ID,
			SaleNo:          sale.SaleNo,
			Date:            sale.Date,
			CustomerID:      sale.CustomerId,
			GrossAmount:     sale.GrossAmount,
			DiscountPercent: sale.DiscountPercent,
			Remarks:         sale.Remarks,
		})
	}
	return result, nil
}

func (s *LedgerStore) ListReceipts(ctx context.Context, customerID int, q ledger.ReceiptQuery) ([]*ledger.CashReceipt, error) {
	dbCtx := s.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if q.DateLessOrEqual != nil {
		dbCtx = dbCtx.Where("date <= ?", *q.DateLessOrEqual)
	}
	if q.DateFrom != nil {
		dbCtx = dbCtx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		dbCtx = dbCtx.Where("date <= ?", *q.DateTo)
	}

	var receipts []*CashReceipt
	if err := dbCtx.Order("date ASC, invoice_no ASC").Find(&receipts).Error; err != nil {
		return nil, err
	}

	result := make([]*ledger.CashReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		result = append(result, &ledger.CashReceipt{
			ID:            receipt.ID,
			InvoiceNo:     receipt.InvoiceNo,
			Date:          receipt.Date,
			CustomerID:    receipt.CustomerId,
			Amount:        receipt.Amount,
			Detail:        receipt.Detail,
			ImportBatchID: receipt.ImportBatchId,
		})
	}
	return result, nil
}

func (s *LedgerStore) SetCachedBalance(ctx context.Context, customerID int, value decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&Customer{}).Where("id = ?", customerID).Update("balance", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// gorm reports 0 rows for an unchanged value too, so re-check existence
		var count int64
		if err := s.db.WithContext(ctx).Model(&Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ledger.ErrCustomerNotFound
		}
	}
	return nil
}

func (s *LedgerStore) NextReceiptSequence(ctx context.Context) (int64, error) {
	return NextReceiptInvoiceNo(s.db.WithContext(ctx))
}

func (s *LedgerStore) InsertReceipts(ctx context.Context, receipts []*ledger.CashReceipt) error {
	rows := make([]*CashReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		rows = append(rows, &CashReceipt{
			InvoiceNo:     receipt.InvoiceNo,
			Date:          receipt.Date,
			CustomerId:    receipt.CustomerID,
			Amount:        receipt.Amount,
			Detail:        receipt.Detail,
			ImportBatchId: receipt.ImportBatchID,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	for i, row := range rows {
		receipts[i].ID = row.ID
	}
	return nil
}
