package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("distribution-backend")

// errStaleOwner aborts an update whose balance locks no longer cover the
// row's current customer: the row was reassigned between the unlocked read
// that chose the lock set and the locked re-read. The caller re-reads and
// retries with fresh locks.
var errStaleOwner = errors.New("record reassigned concurrently")

const ownerRetryAttempts = 3

// resyncCustomerBalance recomputes and persists one customer's cached balance
// on the given transaction. Every mutation path calls this before commit; if
// it fails the whole transaction rolls back, so a persisted sale or receipt
// can never outlive a stale cache.
func resyncCustomerBalance(ctx context.Context, tx *gorm.DB, customerId int, now time.Time) error {
	engine := ledger.New(models.NewLedgerStore(tx))
	_, err := engine.ResyncCustomerBalance(ctx, customerId, now)
	return err
}
