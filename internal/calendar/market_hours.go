package calendar

import (
	"fmt"
	"time"

	"github.com/wonny/rebalancer/internal/contracts"
)

// WeekdayCalendar is a weekday exchange calendar with a fixed open time
// It knows nothing about half days; holidays are supplied by configuration.
type WeekdayCalendar struct {
	location   *time.Location
	openHour   int
	openMinute int
	holidays   map[string]struct{} // YYYY-MM-DD
}

// NewWeekdayCalendar creates a calendar opening at openTime (HH:MM) in the given timezone
func NewWeekdayCalendar(timezone, openTime string, holidays []string) (*WeekdayCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	open, err := time.Parse("15:04", openTime)
	if err != nil {
		return nil, fmt.Errorf("parse open time %q: %w", openTime, err)
	}

	days := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", h, err)
		}
		days[h] = struct{}{}
	}

	return &WeekdayCalendar{
		location:   loc,
		openHour:   open.Hour(),
		openMinute: open.Minute(),
		holidays:   days,
	}, nil
}

// IsTradingDay reports whether the exchange opens on the calendar day of t
func (c *WeekdayCalendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.location)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	_, holiday := c.holidays[local.Format("2006-01-02")]
	return !holiday
}

// NextMarketOpen returns the first open at or after t
// The handle is ignored: every security trades on the same calendar.
func (c *WeekdayCalendar) NextMarketOpen(_ contracts.SecurityHandle, t time.Time) time.Time {
	local := t.In(c.location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)

	for {
		open := day.Add(time.Duration(c.openHour)*time.Hour + time.Duration(c.openMinute)*time.Minute)
		if c.IsTradingDay(day) && !open.Before(local) {
			return open
		}
		day = day.AddDate(0, 0, 1)
	}
}
