package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/weather"
)

const defaultWeatherAPIURL = "https://api.weatherapi.com/v1"

// WeatherAPIProvider implements weather.Forecaster for WeatherAPI.com. It
// answers one date per request, so range acquisitions go through the
// per-date fallback.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	now     func() time.Time
}

// NewWeatherAPIProvider creates the provider. An empty baseURL uses the public endpoint.
func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = defaultWeatherAPIURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuit("weatherapi"),
		},
		now: time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Window matches the free plan: a week of history and 14 forecast days including today.
func (p *WeatherAPIProvider) Window() (int, int) {
	return 7, 14
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

type weatherAPIPayload struct {
	Current *struct {
		LastUpdated string              `json:"last_updated"`
		TempC       float64             `json:"temp_c"`
		Humidity    float64             `json:"humidity"`
		WindKph     float64             `json:"wind_kph"`
		Condition   weatherAPICondition `json:"condition"`
	} `json:"current"`
	Forecast *struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC    float64             `json:"maxtemp_c"`
				MinTempC    float64             `json:"mintemp_c"`
				AvgTempC    float64             `json:"avgtemp_c"`
				MaxWindKph  float64             `json:"maxwind_kph"`
				AvgHumidity float64             `json:"avghumidity"`
				Condition   weatherAPICondition `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *WeatherAPIProvider) endpoint(path string, pos weather.Position, params url.Values) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrInvalidEndpoint)
	}
	if !pos.Valid() {
		return "", fmt.Errorf("%w: coordinates %s out of range", weather.ErrInvalidEndpoint, pos.Key())
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; "lat,lon" is accepted.
	params.Set("q", fmt.Sprintf("%f,%f", pos.Lat, pos.Lon))
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, params.Encode()), nil
}

// FetchRange is not supported by this provider.
func (p *WeatherAPIProvider) FetchRange(context.Context, weather.Position, calendar.Date, calendar.Date) (map[string]weather.Record, error) {
	return nil, weather.ErrRangeUnsupported
}

// FetchSingle requests one date: forecast.json for today onwards, history.json before.
func (p *WeatherAPIProvider) FetchSingle(ctx context.Context, pos weather.Position, date calendar.Date) (weather.Record, error) {
	path := "forecast.json"
	if date.Before(p.today(pos)) {
		path = "history.json"
	}
	params := url.Values{}
	params.Set("dt", date.Key())

	u, err := p.endpoint(path, pos, params)
	if err != nil {
		return weather.Record{}, err
	}

	var payload weatherAPIPayload
	if err := getJSON(ctx, p.httpCfg, u, &payload); err != nil {
		return weather.Record{}, err
	}
	if payload.Error != nil {
		return weather.Record{}, fmt.Errorf("%w: %s", weather.ErrMalformedPayload, payload.Error.Message)
	}
	if payload.Forecast == nil {
		return weather.Record{}, fmt.Errorf("%w: missing forecast block", weather.ErrMalformedPayload)
	}
	for _, fd := range payload.Forecast.ForecastDay {
		if fd.Date != date.Key() {
			continue
		}
		return weather.Record{
			Date:          date,
			ConditionCode: weatherAPICode(fd.Day.Condition.Text),
			Temperature:   fd.Day.AvgTempC,
			MinTemp:       fd.Day.MinTempC,
			MaxTemp:       fd.Day.MaxTempC,
			Humidity:      fd.Day.AvgHumidity,
			WindSpeed:     fd.Day.MaxWindKph,
		}, nil
	}
	return weather.Record{}, fmt.Errorf("%w: %s missing from response", weather.ErrMalformedPayload, date)
}

// FetchCurrent requests current conditions.
func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, pos weather.Position) (weather.Record, error) {
	u, err := p.endpoint("current.json", pos, nil)
	if err != nil {
		return weather.Record{}, err
	}

	var payload weatherAPIPayload
	if err := getJSON(ctx, p.httpCfg, u, &payload); err != nil {
		return weather.Record{}, err
	}
	if payload.Error != nil {
		return weather.Record{}, fmt.Errorf("%w: %s", weather.ErrMalformedPayload, payload.Error.Message)
	}
	c := payload.Current
	if c == nil {
		return weather.Record{}, fmt.Errorf("%w: missing current block", weather.ErrMalformedPayload)
	}
	// last_updated is local "2006-01-02 15:04".
	if len(c.LastUpdated) < len(calendar.KeyLayout) {
		return weather.Record{}, fmt.Errorf("%w: bad last_updated %q", weather.ErrMalformedPayload, c.LastUpdated)
	}
	date, err := calendar.ParseDate(c.LastUpdated[:len(calendar.KeyLayout)])
	if err != nil {
		return weather.Record{}, fmt.Errorf("%w: %v", weather.ErrMalformedPayload, err)
	}

	return weather.Record{
		Date:          date,
		ConditionCode: weatherAPICode(c.Condition.Text),
		Temperature:   c.TempC,
		MinTemp:       c.TempC,
		MaxTemp:       c.TempC,
		Humidity:      c.Humidity,
		WindSpeed:     c.WindKph,
	}, nil
}

// today is the current date at the position, UTC when its zone is unknown.
func (p *WeatherAPIProvider) today(pos weather.Position) calendar.Date {
	loc := time.UTC
	if pos.Timezone != "" {
		if l, err := time.LoadLocation(pos.Timezone); err == nil {
			loc = l
		}
	}
	return calendar.DateOf(p.now().In(loc))
}

// weatherAPICode maps WeatherAPI condition text onto the nearest WMO code.
func weatherAPICode(text string) int {
	switch {
	case text == "":
		return -1
	case contains(text, "thunder") || contains(text, "storm"):
		return 95
	case contains(text, "snow") || contains(text, "sleet") || contains(text, "blizzard") || contains(text, "ice pellets"):
		return 73
	case contains(text, "drizzle"):
		return 53
	case contains(text, "shower"):
		return 80
	case contains(text, "rain"):
		return 63
	case contains(text, "fog") || contains(text, "mist"):
		return 45
	case contains(text, "overcast"):
		return 3
	case contains(text, "partly"):
		return 2
	case contains(text, "cloud"):
		return 3
	case contains(text, "sunny") || contains(text, "clear"):
		return 0
	default:
		return -1
	}
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
