// Package common builds the pieces the host app and the widget processes share.
package common

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/calendar-weather/internal/config"
	"github.com/i474232898/calendar-weather/internal/location"
	"github.com/i474232898/calendar-weather/internal/session"
	"github.com/i474232898/calendar-weather/internal/store"
	"github.com/i474232898/calendar-weather/internal/weather"
	"github.com/i474232898/calendar-weather/internal/weather/providers"
)

// mirrorMaxAge bounds how long the in-process mirror keeps entries.
const mirrorMaxAge = 6 * time.Hour

// Caches are the shared cache stores of one process, one per mode.
type Caches struct {
	kv     store.KV
	mirror *store.MemoryKV
	byMode map[weather.Mode]*store.SharedCache
}

// OpenCaches opens the shared store. When it cannot be opened the process
// keeps running: reads then fall back to the in-process mirror only.
func OpenCaches(ctx context.Context, cfg *config.AppConfig, logger *zap.SugaredLogger) *Caches {
	c := &Caches{mirror: store.NewMemoryKV(mirrorMaxAge)}

	kv, err := store.OpenSQLite(ctx, cfg.SharedStorePath, cfg.SharedNamespace)
	if err != nil {
		logger.Warnw("shared store unavailable, caching in-process only", "path", cfg.SharedStorePath, "error", err)
	} else {
		c.kv = kv
	}

	c.byMode = map[weather.Mode]*store.SharedCache{
		weather.ModeMonthly: store.ForMode(c.kv, weather.ModeMonthly, c.mirror, logger),
		weather.ModeCurrent: store.ForMode(c.kv, weather.ModeCurrent, c.mirror, logger),
	}
	return c
}

// For returns the cache of a mode.
func (c *Caches) For(mode weather.Mode) *store.SharedCache {
	return c.byMode[mode]
}

// Close releases the shared store.
func (c *Caches) Close() error {
	if c.kv == nil {
		return nil
	}
	return c.kv.Close()
}

// NewResolver builds the location chain: IP lookup, device time zone and
// locale, then the rotating defaults.
func NewResolver(cfg *config.AppConfig, client *http.Client, logger *zap.SugaredLogger) (*location.Resolver, error) {
	defaults, err := location.LoadDefaults(cfg.DefaultPositionsFile)
	if err != nil {
		return nil, err
	}

	var network location.NetworkLocator
	if cfg.IPLookup {
		network = providers.NewIPLocator(client, cfg.IPGeoURL)
	}
	device := location.Device{Timezone: cfg.DeviceTimezone, Locale: cfg.DeviceLocale}
	return location.NewResolver(network, device, defaults, logger.Named("location")), nil
}

// NewPipelines builds one acquisition pipeline per mode. Both share the
// process session so the provider budget is counted once per launch.
func NewPipelines(cfg *config.AppConfig, caches *Caches, sess *session.Throttle, locator weather.Locator, client *http.Client, logger *zap.SugaredLogger) map[weather.Mode]*weather.Pipeline {
	forecaster := NewForecaster(cfg, client)

	var geocoder weather.Geocoder
	if g := providers.NewReverseGeocoder(cfg.GeocoderAPIKey); g != nil {
		geocoder = g
	}

	policy := weather.PolicyFor(weather.Interactive)
	policy.AttemptTimeout = cfg.InteractiveAttemptTimeout

	out := make(map[weather.Mode]*weather.Pipeline, 2)
	for _, mode := range []weather.Mode{weather.ModeMonthly, weather.ModeCurrent} {
		out[mode] = weather.NewPipeline(weather.Options{
			Forecaster:  forecaster,
			Locator:     locator,
			Geocoder:    geocoder,
			Cache:       caches.For(mode),
			Session:     sess,
			Mode:        mode,
			Policy:      policy,
			Parallelism: cfg.FetchParallelism,
			Location:    cfg.Location,
			Logger:      logger.Named("weather").With("mode", mode.String()),
		})
	}
	return out
}

// NewForecaster returns the configured forecast provider.
func NewForecaster(cfg *config.AppConfig, client *http.Client) weather.Forecaster {
	if cfg.ForecastProvider == "weatherapi" {
		return providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, cfg.ForecastURL)
	}
	return providers.NewOpenMeteoProvider(client, cfg.ForecastURL)
}

// BackgroundPolicy is the retry policy for scheduled refreshes.
func BackgroundPolicy(cfg *config.AppConfig) weather.RetryPolicy {
	policy := weather.PolicyFor(weather.Background)
	policy.AttemptTimeout = cfg.BackgroundAttemptTimeout
	return policy
}
