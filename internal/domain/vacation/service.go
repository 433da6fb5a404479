package vacation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Service owns the request lifecycle: creation with overlap and cost
// checks, review with an atomic balance deduction, and owner
// cancellation. It never retries on conflict; the caller is told its
// view of the request was stale and must re-fetch.
type Service struct {
	Store  StoreAPI
	Ledger LedgerAPI
	Policy PolicyProvider

	now func() time.Time
}

func NewService(store StoreAPI, ledger LedgerAPI, policy PolicyProvider) *Service {
	return &Service{Store: store, Ledger: ledger, Policy: policy, now: time.Now}
}

// Create validates the range, fixes the day cost from the current
// weekend policy, and persists a pending request. The overlap check and
// the insert run in one transaction; two concurrent creates for the
// same user cannot both pass the check. The balance is not touched:
// requests are provisional until reviewed.
func (s *Service) Create(ctx context.Context, userID string, start, end time.Time, reason string) (VacationRequest, error) {
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return VacationRequest{}, ErrInvalidDateRange
	}
	if start.Before(dateOnly(s.now())) {
		return VacationRequest{}, ErrDateInPast
	}

	policy, err := s.Policy.WeekendPolicy(ctx)
	if err != nil {
		return VacationRequest{}, fmt.Errorf("load weekend policy: %w", err)
	}

	req := VacationRequest{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		TotalDays: ChargeableDays(start, end, policy),
		Reason:    reason,
		Status:    StatusPending,
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return VacationRequest{}, err
	}
	defer rollback(ctx, tx)

	overlap, err := s.Store.HasOverlapTx(ctx, tx, userID, start, end, "")
	if err != nil {
		return VacationRequest{}, err
	}
	if overlap {
		return VacationRequest{}, ErrOverlappingRequest
	}

	req.ID, req.CreatedAt, err = s.Store.InsertRequestTx(ctx, tx, req)
	if err != nil {
		return VacationRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return VacationRequest{}, err
	}
	return req, nil
}

// Review approves or rejects a pending request as a single transaction.
// The request row is locked while its status is re-checked, so two
// concurrent reviews cannot both see it pending; the loser gets
// ErrInvalidStatus. On approval the deduction happens in the same
// transaction, and an insufficient balance aborts the whole thing with
// the request left pending.
func (s *Service) Review(ctx context.Context, requestID, reviewerID string, outcome Status, rejectionReason string) (VacationRequest, error) {
	if outcome != StatusApproved && outcome != StatusRejected {
		return VacationRequest{}, fmt.Errorf("review outcome must be %s or %s, got %s", StatusApproved, StatusRejected, outcome)
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return VacationRequest{}, err
	}
	defer rollback(ctx, tx)

	req, err := s.Store.RequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return VacationRequest{}, err
	}
	if !req.Status.CanTransitionTo(outcome) {
		return VacationRequest{}, fmt.Errorf("%w: request is %s", ErrInvalidStatus, req.Status)
	}

	if outcome == StatusApproved {
		if err := s.Ledger.Deduct(ctx, tx, req.UserID, req.TotalDays); err != nil {
			return VacationRequest{}, err
		}
	}

	var reason *string
	if outcome == StatusRejected && rejectionReason != "" {
		reason = &rejectionReason
	}
	reviewedAt, err := s.Store.UpdateReviewTx(ctx, tx, requestID, outcome, reviewerID, reason)
	if err != nil {
		return VacationRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return VacationRequest{}, err
	}

	req.Status = outcome
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &reviewedAt
	req.RejectionReason = reason
	return req, nil
}

// Cancel is an owner-only transition out of pending. It never touches
// the balance: a pending request was never deducted. The update itself
// re-checks the pending precondition, so a review that commits first
// turns this into a conflict instead of a lost update.
func (s *Service) Cancel(ctx context.Context, requestID, requestingUserID string) (VacationRequest, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return VacationRequest{}, err
	}
	if req.UserID != requestingUserID {
		return VacationRequest{}, ErrForbidden
	}

	switch req.Status {
	case StatusPending:
	case StatusApproved:
		return VacationRequest{}, ErrCannotCancelApproved
	case StatusRejected:
		return VacationRequest{}, ErrCannotCancelRejected
	default:
		return VacationRequest{}, fmt.Errorf("%w: request is %s", ErrInvalidStatus, req.Status)
	}

	cancelled, err := s.Store.CancelPending(ctx, requestID)
	if err != nil {
		return VacationRequest{}, err
	}
	if !cancelled {
		return VacationRequest{}, fmt.Errorf("%w: request changed concurrently", ErrInvalidStatus)
	}

	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (VacationRequest, error) {
	return s.Store.GetRequest(ctx, requestID)
}

type RequestListResult struct {
	Requests []VacationRequest
	Total    int
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) (RequestListResult, error) {
	requests, total, err := s.Store.ListRequestsByUser(ctx, userID, limit, offset)
	if err != nil {
		return RequestListResult{}, err
	}
	return RequestListResult{Requests: requests, Total: total}, nil
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) (RequestListResult, error) {
	requests, total, err := s.Store.ListRequests(ctx, limit, offset)
	if err != nil {
		return RequestListResult{}, err
	}
	return RequestListResult{Requests: requests, Total: total}, nil
}

type rollbacker interface {
	Rollback(ctx context.Context) error
}

// rollback is safe after commit: pgx reports ErrTxClosed then, which is
// not worth logging.
func rollback(ctx context.Context, tx rollbacker) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("transaction rollback failed", "err", err)
	}
}
