package vacation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) InsertRequestTx(ctx context.Context, tx pgx.Tx, req VacationRequest) (string, time.Time, error) {
	var id string
	var createdAt time.Time
	if err := tx.QueryRow(ctx, `
    INSERT INTO vacation_requests (user_id, start_date, end_date, total_days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, req.UserID, req.StartDate, req.EndDate, req.TotalDays, req.Reason, req.Status).Scan(&id, &createdAt); err != nil {
		return "", time.Time{}, err
	}
	return id, createdAt, nil
}

// HasOverlapTx reports whether a pending or approved request of the same
// user shares a day with [start, end]. The user row is locked first:
// locking only the matching request rows is not enough, because an empty
// result set locks nothing and two concurrent creates would both pass.
// With the user row held, same-user check+insert sequences run one at a
// time and the second transaction sees the first one's insert.
func (s *Store) HasOverlapTx(ctx context.Context, tx pgx.Tx, userID string, start, end time.Time, excludeRequestID string) (bool, error) {
	if _, err := tx.Exec(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", userID); err != nil {
		return false, err
	}

	query := `
    SELECT id
    FROM vacation_requests
    WHERE user_id = $1 AND status IN ($2,$3) AND start_date <= $4 AND end_date >= $5
  `
	args := []any{userID, StatusPending, StatusApproved, end, start}
	if excludeRequestID != "" {
		query += " AND id <> $6"
		args = append(args, excludeRequestID)
	}
	query += " FOR UPDATE"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	overlap := rows.Next()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return overlap, nil
}

func (s *Store) RequestForUpdateTx(ctx context.Context, tx pgx.Tx, requestID string) (VacationRequest, error) {
	var req VacationRequest
	if err := tx.QueryRow(ctx, `
    SELECT id, user_id, start_date, end_date, total_days, reason, status, reviewed_by, reviewed_at, rejection_reason, created_at
    FROM vacation_requests
    WHERE id = $1
    FOR UPDATE
  `, requestID).Scan(
		&req.ID,
		&req.UserID,
		&req.StartDate,
		&req.EndDate,
		&req.TotalDays,
		&req.Reason,
		&req.Status,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.RejectionReason,
		&req.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VacationRequest{}, ErrNotFound
		}
		return VacationRequest{}, err
	}
	return req, nil
}

func (s *Store) UpdateReviewTx(ctx context.Context, tx pgx.Tx, requestID string, status Status, reviewerID string, rejectionReason *string) (time.Time, error) {
	var reviewedAt time.Time
	if err := tx.QueryRow(ctx, `
    UPDATE vacation_requests
    SET status = $2, reviewed_by = $3, reviewed_at = now(), rejection_reason = $4
    WHERE id = $1
    RETURNING reviewed_at
  `, requestID, status, reviewerID, rejectionReason).Scan(&reviewedAt); err != nil {
		return time.Time{}, err
	}
	return reviewedAt, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (VacationRequest, error) {
	var req VacationRequest
	if err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, start_date, end_date, total_days, reason, status, reviewed_by, reviewed_at, rejection_reason, created_at
    FROM vacation_requests
    WHERE id = $1
  `, requestID).Scan(
		&req.ID,
		&req.UserID,
		&req.StartDate,
		&req.EndDate,
		&req.TotalDays,
		&req.Reason,
		&req.Status,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.RejectionReason,
		&req.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VacationRequest{}, ErrNotFound
		}
		return VacationRequest{}, err
	}
	return req, nil
}

// CancelPending flips a request to cancelled only if it is still
// pending. The precondition is re-checked in the update itself, so a
// review that committed first wins and this reports false.
func (s *Store) CancelPending(ctx context.Context, requestID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE vacation_requests SET status = $2 WHERE id = $1 AND status = $3
  `, requestID, StatusCancelled, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]VacationRequest, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM vacation_requests WHERE user_id = $1
  `, userID).Scan(&total); err != nil {
		total = 0
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, start_date, end_date, total_days, reason, status, reviewed_by, reviewed_at, rejection_reason, created_at
    FROM vacation_requests
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	requests, err := scanRequests(rows)
	return requests, total, err
}

func (s *Store) ListRequests(ctx context.Context, limit, offset int) ([]VacationRequest, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM vacation_requests").Scan(&total); err != nil {
		total = 0
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, start_date, end_date, total_days, reason, status, reviewed_by, reviewed_at, rejection_reason, created_at
    FROM vacation_requests
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	requests, err := scanRequests(rows)
	return requests, total, err
}

func scanRequests(rows pgx.Rows) ([]VacationRequest, error) {
	var requests []VacationRequest
	for rows.Next() {
		var req VacationRequest
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.StartDate,
			&req.EndDate,
			&req.TotalDays,
			&req.Reason,
			&req.Status,
			&req.ReviewedBy,
			&req.ReviewedAt,
			&req.RejectionReason,
			&req.CreatedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
