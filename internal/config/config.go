package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/session"
)

type AppConfig struct {
	Port string

	// Shared store visible to the app and every widget process.
	SharedStorePath string
	SharedNamespace string

	WeekStart      time.Weekday
	DeviceTimezone string
	DeviceLocale   string
	Location       *time.Location

	InteractiveBudget session.Budget
	BackgroundBudget  session.Budget

	// Per-attempt provider timeouts.
	InteractiveAttemptTimeout time.Duration
	BackgroundAttemptTimeout  time.Duration
	HTTPTimeout               time.Duration
	// FetchParallelism bounds concurrent per-date requests.
	FetchParallelism int

	// ForecastProvider is "openmeteo" or "weatherapi".
	ForecastProvider string
	ForecastURL      string
	WeatherAPIKey    string
	IPGeoURL         string
	IPLookup         bool
	GeocoderAPIKey   string

	// DefaultPositionsFile optionally replaces the built-in rotating city list.
	DefaultPositionsFile string

	// WeatherRefreshCron schedules the periodic background weather refresh.
	WeatherRefreshCron string
	// SnapshotBudget is the wall-clock limit for one snapshot or scheduled refresh.
	SnapshotBudget time.Duration

	LogDebug bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.SharedStorePath = getenvDefault("SHARED_STORE_PATH", "data/shared.db")
	cfg.SharedNamespace = getenvDefault("SHARED_NAMESPACE", "group.calendar-weather")

	cfg.WeekStart, err = calendar.ParseWeekStart(getenvDefault("WEEK_START", "monday"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEEK_START: %w", err)
	}

	cfg.DeviceTimezone = getenvDefault("DEVICE_TIMEZONE", getenvDefault("TZ", time.Local.String()))
	cfg.Location, err = time.LoadLocation(cfg.DeviceTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_TIMEZONE: %w", err)
	}
	cfg.DeviceLocale = getenvDefault("DEVICE_LOCALE", getenvDefault("LANG", "en_US.UTF-8"))

	cfg.InteractiveBudget = session.Budget{ProviderCalls: getenvInt("INTERACTIVE_PROVIDER_CALLS", session.Interactive.ProviderCalls)}
	cfg.BackgroundBudget = session.Budget{ProviderCalls: getenvInt("BACKGROUND_PROVIDER_CALLS", session.Background.ProviderCalls)}
	if cfg.InteractiveBudget.ProviderCalls < 0 || cfg.BackgroundBudget.ProviderCalls < 0 {
		return nil, fmt.Errorf("provider call budgets must not be negative")
	}

	if cfg.InteractiveAttemptTimeout, err = getenvDuration("INTERACTIVE_ATTEMPT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BackgroundAttemptTimeout, err = getenvDuration("BACKGROUND_ATTEMPT_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.SnapshotBudget, err = getenvDuration("SNAPSHOT_BUDGET", "25s"); err != nil {
		return nil, err
	}
	cfg.FetchParallelism = getenvInt("FETCH_PARALLELISM", 8)

	cfg.ForecastProvider = strings.ToLower(getenvDefault("FORECAST_PROVIDER", "openmeteo"))
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_KEY")
	switch cfg.ForecastProvider {
	case "openmeteo":
	case "weatherapi":
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_KEY is required when FORECAST_PROVIDER=weatherapi")
		}
	default:
		return nil, fmt.Errorf("invalid FORECAST_PROVIDER: %q", cfg.ForecastProvider)
	}
	cfg.ForecastURL = os.Getenv("FORECAST_URL")
	cfg.IPGeoURL = os.Getenv("IPGEO_URL")
	cfg.IPLookup = getenvBool("IP_LOOKUP", true)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.DefaultPositionsFile = os.Getenv("DEFAULT_POSITIONS_FILE")

	cfg.WeatherRefreshCron = getenvDefault("WEATHER_REFRESH_CRON", "*/30 * * * *")
	if _, err := cron.ParseStandard(cfg.WeatherRefreshCron); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_REFRESH_CRON: %w", err)
	}

	cfg.LogDebug = getenvBool("LOG_DEBUG", false)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
