// Package location resolves where the device is, degrading from a network
// estimate to the time zone table to a rotating list of well-known cities.
package location

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/calendar-weather/internal/metrics"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// NetworkLocator is the precise first step (IP geolocation).
type NetworkLocator interface {
	Locate(ctx context.Context) (weather.Position, error)
}

// Device describes what the device itself reports about where it is.
type Device struct {
	// Timezone is an IANA identifier such as "Europe/Berlin".
	Timezone string
	// Locale is a POSIX or BCP 47 locale such as "de_DE.UTF-8" or "en-US".
	Locale string
}

// Region returns the upper-case country code embedded in the locale, if any.
func (d Device) Region() string {
	loc := d.Locale
	if i := strings.IndexAny(loc, ".@"); i >= 0 {
		loc = loc[:i]
	}
	parts := strings.FieldsFunc(loc, func(r rune) bool { return r == '_' || r == '-' })
	for i := len(parts) - 1; i >= 1; i-- {
		if len(parts[i]) == 2 {
			return strings.ToUpper(parts[i])
		}
	}
	return ""
}

// Resolver implements weather.Locator.
type Resolver struct {
	network  NetworkLocator
	device   Device
	defaults []weather.Position
	logger   *zap.SugaredLogger
}

// NewResolver creates a resolver. network may be nil; empty defaults use the built-in list.
func NewResolver(network NetworkLocator, device Device, defaults []weather.Position, logger *zap.SugaredLogger) *Resolver {
	if len(defaults) == 0 {
		defaults = builtinDefaults
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{network: network, device: device, defaults: defaults, logger: logger}
}

// Resolve returns the first position produced by the chain. Results are never merged.
func (r *Resolver) Resolve(ctx context.Context, defaultIndex int) (weather.Position, error) {
	if r.network != nil {
		pos, err := r.network.Locate(ctx)
		if err == nil {
			return r.found(pos, weather.SourceNetwork), nil
		}
		r.logger.Infow("network position lookup failed, using device time zone", "error", err)
	}

	if pos, ok := ByTimezone(r.device.Timezone); ok {
		return r.found(pos, weather.SourceTimezone), nil
	}
	if pos, ok := ByCountry(r.device.Region()); ok {
		return r.found(pos, weather.SourceCountry), nil
	}

	pos := r.Default(defaultIndex)
	if !pos.Valid() {
		return weather.Position{}, fmt.Errorf("%w: no default positions", weather.ErrPositionUnavailable)
	}
	return r.found(pos, weather.SourceDefault), nil
}

// Default returns the default position at index, wrapping around the list.
func (r *Resolver) Default(index int) weather.Position {
	if len(r.defaults) == 0 {
		return weather.Position{}
	}
	i := index % len(r.defaults)
	if i < 0 {
		i += len(r.defaults)
	}
	pos := r.defaults[i]
	pos.Source = weather.SourceDefault
	return pos
}

// Defaults returns the rotating list.
func (r *Resolver) Defaults() []weather.Position {
	return r.defaults
}

func (r *Resolver) found(pos weather.Position, src weather.PositionSource) weather.Position {
	pos.Source = src
	metrics.PositionResolutions.WithLabelValues(string(src)).Inc()
	r.logger.Debugw("position resolved", "source", src, "position", pos.Key(), "city", pos.City)
	return pos
}

// ByTimezone looks up the representative city of an IANA zone.
func ByTimezone(tz string) (weather.Position, bool) {
	pos, ok := zoneCoordinates[tz]
	if ok {
		pos.Timezone = tz
	}
	return pos, ok
}

// ByCountry looks up a country centroid.
func ByCountry(code string) (weather.Position, bool) {
	pos, ok := countryCentroids[strings.ToUpper(code)]
	return pos, ok
}
