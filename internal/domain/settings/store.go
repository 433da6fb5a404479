package settings

import (
	"context"
	"time"

	"timeoff/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context) (Settings, error) {
	var out Settings
	var excludedDays []int32
	if err := s.DB.QueryRow(ctx, `
    SELECT exclude_weekends, excluded_days, default_vacation_balance, updated_at
    FROM settings
    WHERE id = 1
  `).Scan(&out.Policy.ExcludeWeekends, &excludedDays, &out.DefaultVacationBalance, &out.UpdatedAt); err != nil {
		return Settings{}, err
	}
	out.Policy.ExcludedDays = make([]time.Weekday, 0, len(excludedDays))
	for _, day := range excludedDays {
		out.Policy.ExcludedDays = append(out.Policy.ExcludedDays, time.Weekday(day))
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, in Settings) error {
	excludedDays := make([]int32, 0, len(in.Policy.ExcludedDays))
	for _, day := range in.Policy.ExcludedDays {
		excludedDays = append(excludedDays, int32(day))
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE settings
    SET exclude_weekends = $1, excluded_days = $2, default_vacation_balance = $3, updated_at = now()
    WHERE id = 1
  `, in.Policy.ExcludeWeekends, excludedDays, in.DefaultVacationBalance)
	return err
}
