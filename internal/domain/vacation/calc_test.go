package vacation

import (
	"testing"
	"time"

	"timeoff/internal/domain/settings"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekendPolicy() settings.WeekendPolicy {
	return settings.WeekendPolicy{
		ExcludeWeekends: true,
		ExcludedDays:    []time.Weekday{time.Saturday, time.Sunday},
	}
}

func TestChargeableDays(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		policy settings.WeekendPolicy
		want   int
	}{
		{
			name:   "monday through friday excludes nothing",
			start:  date(2026, time.March, 2),
			end:    date(2026, time.March, 6),
			policy: weekendPolicy(),
			want:   5,
		},
		{
			name:   "full week charges only weekdays",
			start:  date(2026, time.March, 2),
			end:    date(2026, time.March, 8),
			policy: weekendPolicy(),
			want:   5,
		},
		{
			name:   "single saturday is free",
			start:  date(2026, time.March, 7),
			end:    date(2026, time.March, 7),
			policy: weekendPolicy(),
			want:   0,
		},
		{
			name:   "weekend only range is free",
			start:  date(2026, time.March, 7),
			end:    date(2026, time.March, 8),
			policy: weekendPolicy(),
			want:   0,
		},
		{
			name:   "single weekday charges one",
			start:  date(2026, time.March, 4),
			end:    date(2026, time.March, 4),
			policy: weekendPolicy(),
			want:   1,
		},
		{
			name:   "policy disabled counts every day",
			start:  date(2026, time.March, 2),
			end:    date(2026, time.March, 8),
			policy: settings.WeekendPolicy{ExcludeWeekends: false},
			want:   7,
		},
		{
			name:  "every weekday excluded yields zero",
			start: date(2026, time.March, 2),
			end:   date(2026, time.March, 8),
			policy: settings.WeekendPolicy{
				ExcludeWeekends: true,
				ExcludedDays: []time.Weekday{
					time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
					time.Thursday, time.Friday, time.Saturday,
				},
			},
			want: 0,
		},
		{
			name:   "inverted range yields zero",
			start:  date(2026, time.March, 6),
			end:    date(2026, time.March, 2),
			policy: weekendPolicy(),
			want:   0,
		},
		{
			name:   "two weeks spanning two weekends",
			start:  date(2026, time.March, 2),
			end:    date(2026, time.March, 15),
			policy: weekendPolicy(),
			want:   10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ChargeableDays(tc.start, tc.end, tc.policy)
			if got != tc.want {
				t.Errorf("ChargeableDays(%s, %s) = %d, want %d",
					tc.start.Format("2006-01-02"), tc.end.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestChargeableDaysIgnoresTimeComponent(t *testing.T) {
	policy := weekendPolicy()
	plain := ChargeableDays(date(2026, time.March, 2), date(2026, time.March, 6), policy)
	withTime := ChargeableDays(
		time.Date(2026, time.March, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2026, time.March, 6, 0, 1, 0, 0, time.UTC),
		policy,
	)
	if plain != withTime {
		t.Errorf("time component changed the count: %d vs %d", plain, withTime)
	}
}

func TestChargeableDaysDeterministic(t *testing.T) {
	policy := weekendPolicy()
	start, end := date(2026, time.June, 1), date(2026, time.June, 30)
	first := ChargeableDays(start, end, policy)
	for i := 0; i < 5; i++ {
		if got := ChargeableDays(start, end, policy); got != first {
			t.Fatalf("run %d returned %d, first run returned %d", i, got, first)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		start1, end1, start2, end2 time.Time
		want                       bool
	}{
		{
			name: "shared single day",
			start1: date(2026, time.March, 2), end1: date(2026, time.March, 6),
			start2: date(2026, time.March, 6), end2: date(2026, time.March, 10),
			want: true,
		},
		{
			name: "containment",
			start1: date(2026, time.March, 1), end1: date(2026, time.March, 31),
			start2: date(2026, time.March, 10), end2: date(2026, time.March, 12),
			want: true,
		},
		{
			name: "adjacent but disjoint",
			start1: date(2026, time.March, 2), end1: date(2026, time.March, 6),
			start2: date(2026, time.March, 7), end2: date(2026, time.March, 10),
			want: false,
		},
		{
			name: "identical ranges",
			start1: date(2026, time.March, 2), end1: date(2026, time.March, 6),
			start2: date(2026, time.March, 2), end2: date(2026, time.March, 6),
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.start1, tc.end1, tc.start2, tc.end2); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// symmetry
			if got := Overlaps(tc.start2, tc.end2, tc.start1, tc.end1); got != tc.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}
