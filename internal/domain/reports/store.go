package reports

import (
	"context"
	"time"

	"timeoff/internal/domain/vacation"
	"timeoff/internal/platform/querier"
)

type ScheduleRow struct {
	RequestID string    `json:"requestId"`
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	TotalDays int       `json:"totalDays"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ApprovedSchedule(ctx context.Context, year int) ([]ScheduleRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.user_id, u.full_name, u.email, r.start_date, r.end_date, r.total_days
    FROM vacation_requests r
    JOIN users u ON r.user_id = u.id
    WHERE r.status = $1 AND EXTRACT(YEAR FROM r.start_date) = $2
    ORDER BY r.start_date, u.full_name
  `, vacation.StatusApproved, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleRow
	for rows.Next() {
		var row ScheduleRow
		if err := rows.Scan(&row.RequestID, &row.UserID, &row.FullName, &row.Email, &row.StartDate, &row.EndDate, &row.TotalDays); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
