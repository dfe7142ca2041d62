package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/weather"
)

const (
	defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

	openMeteoDailyFields   = "weather_code,temperature_2m_mean,temperature_2m_max,temperature_2m_min,relative_humidity_2m_mean,wind_speed_10m_max"
	openMeteoCurrentFields = "weather_code,temperature_2m,relative_humidity_2m,wind_speed_10m"

	openMeteoPastDays     = 92
	openMeteoForecastDays = 16
)

// OpenMeteoProvider implements weather.Forecaster for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
}

// NewOpenMeteoProvider creates the provider. An empty baseURL uses the public endpoint.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuit("openmeteo"),
		},
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Window reports the queryable span around today.
func (p *OpenMeteoProvider) Window() (int, int) {
	return openMeteoPastDays, openMeteoForecastDays
}

type openMeteoDaily struct {
	Time        []string   `json:"time"`
	WeatherCode []*float64 `json:"weather_code"`
	TempMean    []*float64 `json:"temperature_2m_mean"`
	TempMax     []*float64 `json:"temperature_2m_max"`
	TempMin     []*float64 `json:"temperature_2m_min"`
	Humidity    []*float64 `json:"relative_humidity_2m_mean"`
	WindMax     []*float64 `json:"wind_speed_10m_max"`
}

type openMeteoPayload struct {
	Error   bool            `json:"error"`
	Reason  string          `json:"reason"`
	Daily   *openMeteoDaily `json:"daily"`
	Current *struct {
		Time        string   `json:"time"`
		WeatherCode *float64 `json:"weather_code"`
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func (p *OpenMeteoProvider) endpoint(pos weather.Position, params url.Values) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", weather.ErrInvalidEndpoint, p.baseURL)
	}
	if !pos.Valid() {
		return "", fmt.Errorf("%w: invalid position %s", weather.ErrInvalidEndpoint, pos.Key())
	}
	params.Set("latitude", strconv.FormatFloat(pos.Lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(pos.Lon, 'f', 4, 64))
	params.Set("timezone", "auto")
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// FetchRange requests the daily forecast for start..end in one query.
func (p *OpenMeteoProvider) FetchRange(ctx context.Context, pos weather.Position, start, end calendar.Date) (map[string]weather.Record, error) {
	params := url.Values{}
	params.Set("daily", openMeteoDailyFields)
	params.Set("start_date", start.Key())
	params.Set("end_date", end.Key())

	u, err := p.endpoint(pos, params)
	if err != nil {
		return nil, err
	}

	var payload openMeteoPayload
	if err := getJSON(ctx, p.httpCfg, u, &payload); err != nil {
		return nil, err
	}
	if payload.Error {
		return nil, fmt.Errorf("%w: %s", weather.ErrMalformedPayload, payload.Reason)
	}
	return decodeDaily(payload.Daily)
}

// FetchSingle requests one date.
func (p *OpenMeteoProvider) FetchSingle(ctx context.Context, pos weather.Position, date calendar.Date) (weather.Record, error) {
	records, err := p.FetchRange(ctx, pos, date, date)
	if err != nil {
		return weather.Record{}, err
	}
	r, ok := records[date.Key()]
	if !ok {
		return weather.Record{}, fmt.Errorf("%w: %s missing from response", weather.ErrMalformedPayload, date)
	}
	return r, nil
}

// FetchCurrent requests current conditions plus today's daily extremes.
func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, pos weather.Position) (weather.Record, error) {
	params := url.Values{}
	params.Set("current", openMeteoCurrentFields)
	params.Set("daily", openMeteoDailyFields)
	params.Set("forecast_days", "1")

	u, err := p.endpoint(pos, params)
	if err != nil {
		return weather.Record{}, err
	}

	var payload openMeteoPayload
	if err := getJSON(ctx, p.httpCfg, u, &payload); err != nil {
		return weather.Record{}, err
	}
	if payload.Error {
		return weather.Record{}, fmt.Errorf("%w: %s", weather.ErrMalformedPayload, payload.Reason)
	}
	c := payload.Current
	if c == nil || c.WeatherCode == nil || c.Temperature == nil {
		return weather.Record{}, fmt.Errorf("%w: missing current block", weather.ErrMalformedPayload)
	}

	// Open-Meteo reports current time as local "2006-01-02T15:04".
	if len(c.Time) < len(calendar.KeyLayout) {
		return weather.Record{}, fmt.Errorf("%w: bad current time %q", weather.ErrMalformedPayload, c.Time)
	}
	date, err := calendar.ParseDate(c.Time[:len(calendar.KeyLayout)])
	if err != nil {
		return weather.Record{}, fmt.Errorf("%w: %v", weather.ErrMalformedPayload, err)
	}

	r := weather.Record{
		Date:          date,
		ConditionCode: int(*c.WeatherCode),
		Temperature:   *c.Temperature,
		MinTemp:       *c.Temperature,
		MaxTemp:       *c.Temperature,
		Humidity:      value(c.Humidity),
		WindSpeed:     value(c.WindSpeed),
	}
	if daily, err := decodeDaily(payload.Daily); err == nil {
		if d, ok := daily[date.Key()]; ok {
			r.MinTemp = d.MinTemp
			r.MaxTemp = d.MaxTemp
		}
	}
	return r, nil
}

// decodeDaily validates the parallel arrays and builds one record per date.
// Indexes whose date fails to parse, or whose weather code is null, are skipped.
func decodeDaily(d *openMeteoDaily) (map[string]weather.Record, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing daily block", weather.ErrMalformedPayload)
	}
	n := len(d.Time)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty daily block", weather.ErrMalformedPayload)
	}
	fields := map[string][]*float64{
		"weather_code":              d.WeatherCode,
		"temperature_2m_mean":       d.TempMean,
		"temperature_2m_max":        d.TempMax,
		"temperature_2m_min":        d.TempMin,
		"relative_humidity_2m_mean": d.Humidity,
		"wind_speed_10m_max":        d.WindMax,
	}
	for name, arr := range fields {
		if len(arr) != n {
			return nil, fmt.Errorf("%w: %s has %d values, time has %d", weather.ErrMalformedPayload, name, len(arr), n)
		}
	}

	records := make(map[string]weather.Record, n)
	for i, ts := range d.Time {
		date, err := calendar.ParseDate(ts)
		if err != nil || d.WeatherCode[i] == nil {
			continue
		}
		maxT, minT := value(d.TempMax[i]), value(d.TempMin[i])
		mean := maxT/2 + minT/2
		if d.TempMean[i] != nil {
			mean = *d.TempMean[i]
		}
		records[date.Key()] = weather.Record{
			Date:          date,
			ConditionCode: int(math.Round(*d.WeatherCode[i])),
			Temperature:   mean,
			MinTemp:       minT,
			MaxTemp:       maxT,
			Humidity:      value(d.Humidity[i]),
			WindSpeed:     value(d.WindMax[i]),
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable dates", weather.ErrMalformedPayload)
	}
	return records, nil
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
