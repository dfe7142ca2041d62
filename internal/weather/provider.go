package weather

import (
	"context"

	"github.com/i474232898/calendar-weather/internal/calendar"
)

// Forecaster abstracts the forecast provider (e.g. Open-Meteo).
type Forecaster interface {
	Name() string
	// FetchRange answers one query covering start..end inclusive. Providers
	// that cannot do range queries return ErrRangeUnsupported.
	FetchRange(ctx context.Context, pos Position, start, end calendar.Date) (map[string]Record, error)
	FetchSingle(ctx context.Context, pos Position, date calendar.Date) (Record, error)
}

// CurrentForecaster is implemented by providers that expose current conditions.
type CurrentForecaster interface {
	FetchCurrent(ctx context.Context, pos Position) (Record, error)
}

// Locator resolves the device position (IP geolocation, time zone table, defaults).
type Locator interface {
	Resolve(ctx context.Context, defaultIndex int) (Position, error)
	// Default returns the rotating default position at index, wrapping around.
	Default(index int) Position
}

// Geocoder turns coordinates into a locality name for display.
type Geocoder interface {
	Locality(ctx context.Context, pos Position) (string, error)
}

// Cache is the contract the shared cross-process store must satisfy.
type Cache interface {
	Read(ctx context.Context, dateKey string) (Record, bool)
	ReadAll(ctx context.Context) (Entry, bool)
	Write(ctx context.Context, entry Entry) error
}

// Session is the per-process call budget and location memo.
type Session interface {
	ResolveLocationOnce(ctx context.Context, resolve func(ctx context.Context) (Position, error)) (Position, bool)
	TryConsumeProviderCall() bool
	DefaultIndex() int
	AdvanceDefault() int
	Seed(pos Position)
}
