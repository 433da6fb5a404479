package vacation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"timeoff/internal/domain/settings"
)

// StoreAPI is the persistence contract the lifecycle service runs
// against. Methods suffixed Tx participate in the caller's transaction;
// the service owns begin/commit/rollback so a read-check-write sequence
// is atomic.
type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	InsertRequestTx(ctx context.Context, tx pgx.Tx, req VacationRequest) (string, time.Time, error)
	HasOverlapTx(ctx context.Context, tx pgx.Tx, userID string, start, end time.Time, excludeRequestID string) (bool, error)
	RequestForUpdateTx(ctx context.Context, tx pgx.Tx, requestID string) (VacationRequest, error)
	UpdateReviewTx(ctx context.Context, tx pgx.Tx, requestID string, status Status, reviewerID string, rejectionReason *string) (time.Time, error)
	GetRequest(ctx context.Context, requestID string) (VacationRequest, error)
	CancelPending(ctx context.Context, requestID string) (bool, error)
	ListRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]VacationRequest, int, error)
	ListRequests(ctx context.Context, limit, offset int) ([]VacationRequest, int, error)
}

// LedgerAPI is the balance operation the lifecycle needs: a deduction
// inside the approval transaction. Everything else the ledger offers is
// admin surface, not lifecycle.
type LedgerAPI interface {
	Deduct(ctx context.Context, tx pgx.Tx, userID string, days int) error
}

// PolicyProvider supplies the weekend policy in effect at creation time.
type PolicyProvider interface {
	WeekendPolicy(ctx context.Context) (settings.WeekendPolicy, error)
}
