package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/session"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// RangeFunc returns the dates to acquire at now.
type RangeFunc func(now time.Time) (calendar.Date, calendar.Date)

// Target is one pipeline refreshed in the background.
type Target struct {
	Pipeline *weather.Pipeline
	Range    RangeFunc
	// Policy overrides the background retry policy when set.
	Policy weather.RetryPolicy
}

// MonthRange covers the visible grid of the month containing now.
func MonthRange(weekStart time.Weekday, loc *time.Location) RangeFunc {
	return func(now time.Time) (calendar.Date, calendar.Date) {
		return calendar.Generate(calendar.DateOf(now.In(loc)), weekStart).Span()
	}
}

// TodayRange covers the current day only.
func TodayRange(loc *time.Location) RangeFunc {
	return func(now time.Time) (calendar.Date, calendar.Date) {
		d := calendar.DateOf(now.In(loc))
		return d, d
	}
}

// WeatherRefresh returns a RefreshFunc that acquires every target. Each call
// is a separate background session with its own provider budget.
func WeatherRefresh(targets []Target, budget session.Budget, now func() time.Time) RefreshFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, reason string) error {
		var errs []error
		at := now()
		for _, t := range targets {
			policy := t.Policy
			if policy.MaxAttempts == 0 {
				policy = weather.PolicyFor(weather.Background)
			}
			p := t.Pipeline.WithSession(session.New(budget), policy)
			start, end := t.Range(at)
			if _, err := p.Acquire(ctx, start, end); err != nil {
				errs = append(errs, fmt.Errorf("%s refresh (%s): %w", p.Mode(), reason, err))
			}
		}
		return errors.Join(errs...)
	}
}
