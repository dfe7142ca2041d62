package weather

import (
	"fmt"
	"time"

	"github.com/i474232898/calendar-weather/internal/calendar"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// PositionSource records which resolution step produced a position.
type PositionSource string

const (
	SourceNetwork  PositionSource = "network"
	SourceTimezone PositionSource = "timezone"
	SourceCountry  PositionSource = "country"
	SourceDefault  PositionSource = "default"
)

// Position is a geographic point with optional display metadata.
type Position struct {
	Lat      float64        `json:"lat" yaml:"lat"`
	Lon      float64        `json:"lon" yaml:"lon"`
	City     string         `json:"city,omitempty" yaml:"city"`
	Region   string         `json:"region,omitempty" yaml:"region"`
	Country  string         `json:"country,omitempty" yaml:"country"`
	Timezone string         `json:"timezone,omitempty" yaml:"timezone"`
	Source   PositionSource `json:"source,omitempty" yaml:"-"`
}

// Key returns a canonical string key for logging this position.
func (p Position) Key() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// Valid reports whether the coordinates are in range.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 && !(p.Lat == 0 && p.Lon == 0)
}

// Record is the normalized weather for one calendar date.
type Record struct {
	Date          calendar.Date `json:"date"`
	ConditionCode int           `json:"conditionCode"`
	Temperature   float64       `json:"temperatureC"`
	MinTemp       float64       `json:"minTempC"`
	MaxTemp       float64       `json:"maxTempC"`
	Humidity      float64       `json:"humidityPercent"`
	WindSpeed     float64       `json:"windSpeedKmh"`
}

// Key returns the cache key of the record's date.
func (r Record) Key() string {
	return r.Date.Key()
}

// Entry is the cross-process cache value: the latest records plus the time they were written.
type Entry struct {
	Records   map[string]Record `json:"records"`
	WrittenAt time.Time         `json:"writtenAt"`
}

// Fresh reports whether the entry is still usable at now for the given TTL.
// An entry is usable up to and including WrittenAt+ttl.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if e.WrittenAt.IsZero() || len(e.Records) == 0 {
		return false
	}
	return !now.After(e.WrittenAt.Add(ttl))
}

// Mode selects one of the two acquisition flavours used by the renderers.
type Mode int

const (
	// ModeMonthly fetches a daily forecast range for the visible month.
	ModeMonthly Mode = iota
	// ModeCurrent fetches current conditions for today.
	ModeCurrent
)

func (m Mode) String() string {
	if m == ModeCurrent {
		return "current"
	}
	return "monthly"
}

// TTL returns the age after which a cached entry for this mode is unusable.
func (m Mode) TTL() time.Duration {
	if m == ModeCurrent {
		return time.Hour
	}
	return 6 * time.Hour
}

// CacheKey is the shared-store key holding this mode's entry.
func (m Mode) CacheKey() string {
	return "weather." + m.String()
}

// Invocation distinguishes foreground from background callers.
type Invocation int

const (
	Interactive Invocation = iota
	Background
)

func (i Invocation) String() string {
	if i == Background {
		return "background"
	}
	return "interactive"
}
