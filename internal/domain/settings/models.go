package settings

import "time"

// WeekendPolicy controls which weekdays are chargeable when computing
// the day cost of a vacation range. Weekday indices follow time.Weekday
// (0=Sunday .. 6=Saturday).
type WeekendPolicy struct {
	ExcludeWeekends bool           `json:"excludeWeekends"`
	ExcludedDays    []time.Weekday `json:"excludedDays"`
}

func (p WeekendPolicy) Excludes(day time.Weekday) bool {
	if !p.ExcludeWeekends {
		return false
	}
	for _, excluded := range p.ExcludedDays {
		if excluded == day {
			return true
		}
	}
	return false
}

type Settings struct {
	Policy                 WeekendPolicy `json:"weekendPolicy"`
	DefaultVacationBalance int           `json:"defaultVacationBalance"`
	UpdatedAt              time.Time     `json:"updatedAt"`
}
