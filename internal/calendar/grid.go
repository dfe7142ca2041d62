// Package calendar turns a reference date into a week-aligned month grid.
package calendar

import (
	"fmt"
	"time"
)

// Membership tells which month a grid cell belongs to relative to the reference month.
type Membership int

const (
	Previous Membership = iota
	Current
	Next
)

func (m Membership) String() string {
	switch m {
	case Previous:
		return "previous"
	case Next:
		return "next"
	default:
		return "current"
	}
}

func (m Membership) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Membership) UnmarshalText(b []byte) error {
	switch string(b) {
	case "previous":
		*m = Previous
	case "current":
		*m = Current
	case "next":
		*m = Next
	default:
		return fmt.Errorf("unknown membership %q", b)
	}
	return nil
}

// Day is a single grid cell. Date is always the true date of the cell, including filler cells.
type Day struct {
	Number     int        `json:"day"`
	Membership Membership `json:"membership"`
	Date       Date       `json:"date"`
}

// Grid is an ordered sequence of days whose length is a multiple of 7.
type Grid []Day

// Generate builds the grid for ref's month: previous-month filler up to the
// first weekday column, every day of the month, then next-month filler to
// complete the last week.
func Generate(ref Date, weekStart time.Weekday) Grid {
	first := FirstOfMonth(ref)
	lead := WeekdayIndex(first.Weekday(), weekStart)
	days := DaysIn(ref.Year, ref.Month)

	total := lead + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}
	grid := make(Grid, 0, total)

	py, pm := AddMonths(ref.Year, ref.Month, -1)
	prevDays := DaysIn(py, pm)
	for i := lead; i > 0; i-- {
		n := prevDays - i + 1
		grid = append(grid, Day{Number: n, Membership: Previous, Date: Date{Year: py, Month: pm, Day: n}})
	}

	for n := 1; n <= days; n++ {
		grid = append(grid, Day{Number: n, Membership: Current, Date: Date{Year: ref.Year, Month: ref.Month, Day: n}})
	}

	ny, nm := AddMonths(ref.Year, ref.Month, 1)
	for n := 1; len(grid) < total; n++ {
		grid = append(grid, Day{Number: n, Membership: Next, Date: Date{Year: ny, Month: nm, Day: n}})
	}
	return grid
}

// Weeks splits the grid into rows of seven.
func (g Grid) Weeks() [][]Day {
	weeks := make([][]Day, 0, len(g)/7)
	for i := 0; i+7 <= len(g); i += 7 {
		weeks = append(weeks, g[i:i+7])
	}
	return weeks
}

// CurrentDays returns the cells belonging to the reference month, in order.
func (g Grid) CurrentDays() []Day {
	out := make([]Day, 0, 31)
	for _, d := range g {
		if d.Membership == Current {
			out = append(out, d)
		}
	}
	return out
}

// IndexOf returns the cell index holding date d, or -1.
func (g Grid) IndexOf(d Date) int {
	for i, c := range g {
		if c.Date == d {
			return i
		}
	}
	return -1
}

// Span returns the first and last dates covered by the grid.
func (g Grid) Span() (Date, Date) {
	if len(g) == 0 {
		return Date{}, Date{}
	}
	return g[0].Date, g[len(g)-1].Date
}
