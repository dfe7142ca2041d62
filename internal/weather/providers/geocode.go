package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/calendar-weather/internal/weather"
)

var errNoLocality = errors.New("no locality in reverse geocoding result")

// reverseFunc matches geocoder.GeocodingReverse.
type reverseFunc func(geocoder.Location) ([]geocoder.Address, error)

// ReverseGeocoder resolves a display locality through the Google geocoding API.
type ReverseGeocoder struct {
	reverse reverseFunc
}

var apiKeyOnce sync.Once

// NewReverseGeocoder returns nil when apiKey is empty; callers then fall back to the position's own city.
func NewReverseGeocoder(apiKey string) *ReverseGeocoder {
	if apiKey == "" {
		return nil
	}
	// The geocoder package keeps its key in a package variable.
	apiKeyOnce.Do(func() { geocoder.ApiKey = apiKey })
	return &ReverseGeocoder{reverse: geocoder.GeocodingReverse}
}

// Locality returns the first city-level name for pos. The underlying client
// is not context-aware, so ctx only bounds how long we wait for it.
func (g *ReverseGeocoder) Locality(ctx context.Context, pos weather.Position) (string, error) {
	if g == nil || g.reverse == nil {
		return "", errNoLocality
	}
	type result struct {
		name string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		addrs, err := g.reverse(geocoder.Location{Latitude: pos.Lat, Longitude: pos.Lon})
		if err != nil {
			ch <- result{err: err}
			return
		}
		for _, a := range addrs {
			switch {
			case a.City != "":
				ch <- result{name: a.City}
				return
			case a.State != "":
				ch <- result{name: a.State}
				return
			}
		}
		ch <- result{err: errNoLocality}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.name, r.err
	}
}
