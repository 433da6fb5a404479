package vacation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"timeoff/internal/domain/balance"
	"timeoff/internal/domain/settings"
)

// fakeTx satisfies pgx.Tx through embedding; only Commit and Rollback
// are ever called by the service.
type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	return nil
}

type fakeStore struct {
	requests map[string]VacationRequest
	nextID   int

	// beforeCancel runs between the status read and the conditional
	// cancel update, standing in for a concurrent writer.
	beforeCancel func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: make(map[string]VacationRequest)}
}

func (s *fakeStore) put(req VacationRequest) VacationRequest {
	if req.ID == "" {
		s.nextID++
		req.ID = fmt.Sprintf("req-%d", s.nextID)
	}
	s.requests[req.ID] = req
	return req
}

func (s *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

func (s *fakeStore) InsertRequestTx(ctx context.Context, tx pgx.Tx, req VacationRequest) (string, time.Time, error) {
	req.CreatedAt = time.Now().UTC()
	req = s.put(req)
	return req.ID, req.CreatedAt, nil
}

func (s *fakeStore) HasOverlapTx(ctx context.Context, tx pgx.Tx, userID string, start, end time.Time, excludeRequestID string) (bool, error) {
	for _, req := range s.requests {
		if req.UserID != userID || req.ID == excludeRequestID {
			continue
		}
		if req.Status != StatusPending && req.Status != StatusApproved {
			continue
		}
		if Overlaps(req.StartDate, req.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) RequestForUpdateTx(ctx context.Context, tx pgx.Tx, requestID string) (VacationRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return VacationRequest{}, ErrNotFound
	}
	return req, nil
}

func (s *fakeStore) UpdateReviewTx(ctx context.Context, tx pgx.Tx, requestID string, status Status, reviewerID string, rejectionReason *string) (time.Time, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	reviewedAt := time.Now().UTC()
	req.Status = status
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &reviewedAt
	req.RejectionReason = rejectionReason
	s.requests[requestID] = req
	return reviewedAt, nil
}

func (s *fakeStore) GetRequest(ctx context.Context, requestID string) (VacationRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return VacationRequest{}, ErrNotFound
	}
	return req, nil
}

func (s *fakeStore) CancelPending(ctx context.Context, requestID string) (bool, error) {
	if s.beforeCancel != nil {
		s.beforeCancel()
	}
	req, ok := s.requests[requestID]
	if !ok || req.Status != StatusPending {
		return false, nil
	}
	req.Status = StatusCancelled
	s.requests[requestID] = req
	return true, nil
}

func (s *fakeStore) ListRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]VacationRequest, int, error) {
	var out []VacationRequest
	for _, req := range s.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) ListRequests(ctx context.Context, limit, offset int) ([]VacationRequest, int, error) {
	var out []VacationRequest
	for _, req := range s.requests {
		out = append(out, req)
	}
	return out, len(out), nil
}

type fakeLedger struct {
	balances map[string]int
	deducts  int
}

func (l *fakeLedger) Deduct(ctx context.Context, tx pgx.Tx, userID string, days int) error {
	bal, ok := l.balances[userID]
	if !ok {
		return balance.ErrUserNotFound
	}
	if bal < days {
		return fmt.Errorf("%w: balance %d, requested %d", balance.ErrInsufficientBalance, bal, days)
	}
	l.balances[userID] = bal - days
	l.deducts++
	return nil
}

type fakePolicy struct {
	policy settings.WeekendPolicy
}

func (p fakePolicy) WeekendPolicy(ctx context.Context) (settings.WeekendPolicy, error) {
	return p.policy, nil
}

func newTestService(store *fakeStore, ledger *fakeLedger) *Service {
	svc := NewService(store, ledger, fakePolicy{policy: weekendPolicy()})
	svc.now = func() time.Time { return date(2026, time.March, 1) }
	return svc
}

func TestCreateRequest(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 10}}
	svc := newTestService(store, ledger)

	req, err := svc.Create(context.Background(), "alice", date(2026, time.March, 2), date(2026, time.March, 6), "spring break")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != StatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.TotalDays != 5 {
		t.Errorf("totalDays = %d, want 5", req.TotalDays)
	}
	if req.ID == "" {
		t.Error("request id not assigned")
	}
	if req.ReviewedBy != nil || req.ReviewedAt != nil || req.RejectionReason != nil {
		t.Error("pending request must carry no review metadata")
	}
	if ledger.balances["alice"] != 10 {
		t.Errorf("balance = %d, create must not touch it", ledger.balances["alice"])
	}
}

func TestCreateRequestValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLedger{balances: map[string]int{}})

	_, err := svc.Create(context.Background(), "alice", date(2026, time.March, 6), date(2026, time.March, 2), "")
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("inverted range: err = %v, want ErrInvalidDateRange", err)
	}

	_, err = svc.Create(context.Background(), "alice", date(2026, time.February, 20), date(2026, time.February, 25), "")
	if !errors.Is(err, ErrDateInPast) {
		t.Errorf("past start: err = %v, want ErrDateInPast", err)
	}

	// starting today is allowed
	_, err = svc.Create(context.Background(), "alice", date(2026, time.March, 1), date(2026, time.March, 2), "")
	if err != nil {
		t.Errorf("start today: err = %v", err)
	}
}

func TestCreateRequestOverlap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLedger{balances: map[string]int{}})

	store.put(VacationRequest{
		UserID:    "alice",
		StartDate: date(2026, time.March, 4),
		EndDate:   date(2026, time.March, 10),
		Status:    StatusPending,
	})

	_, err := svc.Create(context.Background(), "alice", date(2026, time.March, 2), date(2026, time.March, 6), "")
	if !errors.Is(err, ErrOverlappingRequest) {
		t.Fatalf("err = %v, want ErrOverlappingRequest", err)
	}

	// another user is free to book the same range
	if _, err := svc.Create(context.Background(), "bob", date(2026, time.March, 2), date(2026, time.March, 6), ""); err != nil {
		t.Errorf("other user: err = %v", err)
	}

	// disjoint range for the same user is fine
	if _, err := svc.Create(context.Background(), "alice", date(2026, time.March, 16), date(2026, time.March, 20), ""); err != nil {
		t.Errorf("disjoint range: err = %v", err)
	}
}

func TestCreateRequestIgnoresTerminalOverlap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLedger{balances: map[string]int{}})

	for _, status := range []Status{StatusRejected, StatusCancelled} {
		store.put(VacationRequest{
			UserID:    "alice",
			StartDate: date(2026, time.March, 2),
			EndDate:   date(2026, time.March, 6),
			Status:    status,
		})
	}

	if _, err := svc.Create(context.Background(), "alice", date(2026, time.March, 2), date(2026, time.March, 6), ""); err != nil {
		t.Errorf("err = %v, rejected and cancelled requests must not block", err)
	}
}

func TestReviewApprove(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 10}}
	svc := newTestService(store, ledger)

	seeded := store.put(VacationRequest{
		UserID:    "alice",
		StartDate: date(2026, time.March, 2),
		EndDate:   date(2026, time.March, 6),
		TotalDays: 5,
		Status:    StatusPending,
	})

	req, err := svc.Review(context.Background(), seeded.ID, "admin", StatusApproved, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if req.Status != StatusApproved {
		t.Errorf("status = %s, want approved", req.Status)
	}
	if req.ReviewedBy == nil || *req.ReviewedBy != "admin" {
		t.Error("reviewedBy not recorded")
	}
	if req.ReviewedAt == nil {
		t.Error("reviewedAt not recorded")
	}
	if got := ledger.balances["alice"]; got != 5 {
		t.Errorf("balance = %d, want 5", got)
	}
	if ledger.deducts != 1 {
		t.Errorf("deducts = %d, want exactly 1", ledger.deducts)
	}
}

func TestReviewReject(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 10}}
	svc := newTestService(store, ledger)

	seeded := store.put(VacationRequest{
		UserID:    "alice",
		StartDate: date(2026, time.March, 2),
		EndDate:   date(2026, time.March, 6),
		TotalDays: 5,
		Status:    StatusPending,
	})

	req, err := svc.Review(context.Background(), seeded.ID, "admin", StatusRejected, "team is at capacity")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if req.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", req.Status)
	}
	if req.RejectionReason == nil || *req.RejectionReason != "team is at capacity" {
		t.Error("rejection reason not recorded")
	}
	if ledger.balances["alice"] != 10 {
		t.Errorf("balance = %d, reject must not deduct", ledger.balances["alice"])
	}
	if ledger.deducts != 0 {
		t.Errorf("deducts = %d, want 0", ledger.deducts)
	}
}

func TestReviewAlreadyDecided(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 10}}
	svc := newTestService(store, ledger)

	for _, status := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		seeded := store.put(VacationRequest{UserID: "alice", TotalDays: 5, Status: status})
		_, err := svc.Review(context.Background(), seeded.ID, "admin", StatusApproved, "")
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("review of %s request: err = %v, want ErrInvalidStatus", status, err)
		}
	}
	if ledger.deducts != 0 {
		t.Errorf("deducts = %d, failed reviews must not deduct", ledger.deducts)
	}
}

func TestReviewInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 3}}
	svc := newTestService(store, ledger)

	seeded := store.put(VacationRequest{
		UserID:    "alice",
		StartDate: date(2026, time.March, 2),
		EndDate:   date(2026, time.March, 6),
		TotalDays: 5,
		Status:    StatusPending,
	})

	_, err := svc.Review(context.Background(), seeded.ID, "admin", StatusApproved, "")
	if !errors.Is(err, balance.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	after, _ := store.GetRequest(context.Background(), seeded.ID)
	if after.Status != StatusPending {
		t.Errorf("status = %s, a failed approval must leave the request pending", after.Status)
	}
	if ledger.balances["alice"] != 3 {
		t.Errorf("balance = %d, want 3 untouched", ledger.balances["alice"])
	}
}

func TestReviewInvalidOutcome(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLedger{balances: map[string]int{}})

	for _, outcome := range []Status{StatusPending, StatusCancelled, Status("done")} {
		if _, err := svc.Review(context.Background(), "req-1", "admin", outcome, ""); err == nil {
			t.Errorf("outcome %s: expected an error", outcome)
		}
	}
}

func TestReviewNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLedger{balances: map[string]int{}})
	_, err := svc.Review(context.Background(), "missing", "admin", StatusApproved, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCancelRequest(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{balances: map[string]int{"alice": 10}}
	svc := newTestService(store, ledger)

	seeded := store.put(VacationRequest{UserID: "alice", TotalDays: 5, Status: StatusPending})

	req, err := svc.Cancel(context.Background(), seeded.ID, "alice")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if req.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", req.Status)
	}
	if ledger.balances["alice"] != 10 {
		t.Errorf("balance = %d, cancel must not touch it", ledger.balances["alice"])
	}
}

func TestCancelRequestOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLedger{balances: map[string]int{}})

	seeded := store.put(VacationRequest{UserID: "alice", Status: StatusPending})

	if _, err := svc.Cancel(context.Background(), seeded.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	after, _ := store.GetRequest(context.Background(), seeded.ID)
	if after.Status != StatusPending {
		t.Errorf("status = %s, a forbidden cancel must not transition", after.Status)
	}
}

func TestCancelRequestTerminalStates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLedger{balances: map[string]int{}})

	tests := []struct {
		status Status
		want   error
	}{
		{StatusApproved, ErrCannotCancelApproved},
		{StatusRejected, ErrCannotCancelRejected},
		{StatusCancelled, ErrInvalidStatus},
	}
	for _, tc := range tests {
		seeded := store.put(VacationRequest{UserID: "alice", Status: tc.status})
		if _, err := svc.Cancel(context.Background(), seeded.ID, "alice"); !errors.Is(err, tc.want) {
			t.Errorf("cancel %s request: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestCancelRequestLostRace(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLedger{balances: map[string]int{}})

	seeded := store.put(VacationRequest{UserID: "alice", Status: StatusPending})

	// a review commits between the status read and the conditional
	// cancel update; the update's pending precondition must catch it
	store.beforeCancel = func() {
		raced := store.requests[seeded.ID]
		raced.Status = StatusApproved
		store.requests[seeded.ID] = raced
	}

	_, err := svc.Cancel(context.Background(), seeded.ID, "alice")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}

	after, _ := store.GetRequest(context.Background(), seeded.ID)
	if after.Status != StatusApproved {
		t.Errorf("status = %s, the concurrent approval must survive", after.Status)
	}
}
