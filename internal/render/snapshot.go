// Package render produces the snapshots the host app and the widgets display.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// Kind identifies the surface a snapshot is rendered for.
type Kind int

const (
	App Kind = iota
	MonthWidget
	TodayWidget
)

func (k Kind) String() string {
	switch k {
	case MonthWidget:
		return "month"
	case TodayWidget:
		return "today"
	default:
		return "app"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind parses "app", "month" or "today".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "app", "":
		return App, nil
	case "month":
		return MonthWidget, nil
	case "today":
		return TodayWidget, nil
	}
	return App, fmt.Errorf("unknown render kind %q", s)
}

// Mode returns the weather acquisition mode the kind displays.
func (k Kind) Mode() weather.Mode {
	if k == TodayWidget {
		return weather.ModeCurrent
	}
	return weather.ModeMonthly
}

// Labels are the formatted header strings.
type Labels struct {
	Month     string `json:"month"`
	Day       string `json:"day"`
	TimeOfDay string `json:"timeOfDay"`
	Locality  string `json:"locality,omitempty"`
}

// Forecast is a weather record with its presentation.
type Forecast struct {
	weather.Record
	Condition weather.Condition `json:"condition"`
	Icon      string            `json:"icon"`
	Color     string            `json:"color"`
	Text      string            `json:"text"`
}

func forecastOf(r weather.Record) *Forecast {
	return &Forecast{
		Record:    r,
		Condition: r.Condition(),
		Icon:      r.Icon(),
		Color:     r.Color(),
		Text:      r.Text(),
	}
}

// Cell is one rendered grid day. Weather is nil when nothing is known.
type Cell struct {
	calendar.Day
	Weather   *Forecast `json:"weather,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
	IsToday   bool      `json:"isToday,omitempty"`
}

// Snapshot is everything a surface needs to draw itself at one instant.
type Snapshot struct {
	Kind   Kind      `json:"kind"`
	AsOf   time.Time `json:"asOf"`
	Weeks  int       `json:"weeks"`
	Labels Labels    `json:"labels"`
	Cells  []Cell    `json:"cells"`
	Today  *Cell     `json:"today,omitempty"`
	// Status is a short message shown next to the weather when it could not be refreshed.
	Status string `json:"status,omitempty"`
	Live   bool   `json:"live"`
}

// Cell returns the cell for d.
func (s Snapshot) Cell(d calendar.Date) (Cell, bool) {
	for _, c := range s.Cells {
		if c.Date == d {
			return c, true
		}
	}
	return Cell{}, false
}

func labelsAt(now time.Time) Labels {
	return Labels{
		Month:     now.Format("January 2006"),
		Day:       now.Format("Monday, January 2"),
		TimeOfDay: now.Format("15:04"),
	}
}
