package ledger

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrReceiptNotFound  = errors.New("cash receipt not found")

	// ErrInvalidRange is returned when a statement window ends before it starts.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidReceipt is returned for a receipt entry with a non-positive
	// amount or missing required fields. Bulk import wraps it with the index
	// of the offending entry and persists nothing.
	ErrInvalidReceipt = errors.New("invalid cash receipt entry")

	ErrEmptyBatch = errors.New("empty receipt batch")
)
