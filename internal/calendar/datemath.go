package calendar

import (
	"fmt"
	"strings"
	"time"
)

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// AddMonths shifts (year, month) by n months, rolling the year over at December/January.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month-1) + n
	y := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}

// WeekdayIndex returns the column of wd in a week that starts on weekStart (0..6).
func WeekdayIndex(wd, weekStart time.Weekday) int {
	return (int(wd) - int(weekStart) + 7) % 7
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d Date) Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// ParseWeekStart maps a config value to a weekday. Only monday and sunday are supported.
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return time.Monday, fmt.Errorf("unsupported week start %q", s)
	}
}
