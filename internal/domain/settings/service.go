package settings

import (
	"context"
	"fmt"
	"time"
)

type StoreAPI interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, in Settings) error
}

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.Store.Get(ctx)
}

// WeekendPolicy returns the policy in effect right now. Requests snapshot
// their day cost at creation, so a later policy change never rewrites a
// stored request.
func (s *Service) WeekendPolicy(ctx context.Context) (WeekendPolicy, error) {
	current, err := s.Store.Get(ctx)
	if err != nil {
		return WeekendPolicy{}, err
	}
	return current.Policy, nil
}

func (s *Service) Update(ctx context.Context, in Settings) error {
	if in.DefaultVacationBalance < 0 {
		return fmt.Errorf("default vacation balance must not be negative")
	}
	for _, day := range in.Policy.ExcludedDays {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("excluded day %d out of range", day)
		}
	}
	return s.Store.Update(ctx, in)
}
