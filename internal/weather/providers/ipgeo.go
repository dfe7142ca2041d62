package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/i474232898/calendar-weather/internal/weather"
)

const defaultIPGeoURL = "https://ipinfo.io/json"

// IPLocator estimates the device position from its public IP address.
type IPLocator struct {
	url     string
	httpCfg HTTPClientConfig
}

// NewIPLocator creates the locator. An empty url uses ipinfo.io.
func NewIPLocator(client *http.Client, url string) *IPLocator {
	if url == "" {
		url = defaultIPGeoURL
	}
	return &IPLocator{
		url: url,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuit("ipgeo"),
		},
	}
}

// Locate performs the lookup. The response carries coordinates as a "lat,lon" string.
func (l *IPLocator) Locate(ctx context.Context) (weather.Position, error) {
	var payload struct {
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
		Loc      string `json:"loc"`
		Timezone string `json:"timezone"`
	}
	if err := getJSON(ctx, l.httpCfg, l.url, &payload); err != nil {
		return weather.Position{}, err
	}

	lat, lon, err := parseLatLon(payload.Loc)
	if err != nil {
		return weather.Position{}, err
	}
	pos := weather.Position{
		Lat:      lat,
		Lon:      lon,
		City:     payload.City,
		Region:   payload.Region,
		Country:  payload.Country,
		Timezone: payload.Timezone,
		Source:   weather.SourceNetwork,
	}
	if !pos.Valid() {
		return weather.Position{}, fmt.Errorf("%w: out of range coordinates %q", weather.ErrMalformedPayload, payload.Loc)
	}
	return pos, nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: bad loc %q", weather.ErrMalformedPayload, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad latitude %q", weather.ErrMalformedPayload, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad longitude %q", weather.ErrMalformedPayload, parts[1])
	}
	return lat, lon, nil
}
