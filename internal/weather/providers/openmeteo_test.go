package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/weather"
)

var tokyo = weather.Position{Lat: 35.6762, Lon: 139.6503, City: "Tokyo"}

func serve(t *testing.T, status int, body string) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestOpenMeteoFetchRange(t *testing.T) {
	srv, seen := serve(t, http.StatusOK, `{
		"daily": {
			"time": ["2025-03-10", "2025-03-11", "not-a-date"],
			"weather_code": [3, 61, 0],
			"temperature_2m_mean": [8.1, null, 9],
			"temperature_2m_max": [11.2, 9.0, 12],
			"temperature_2m_min": [4.9, 5.0, 6],
			"relative_humidity_2m_mean": [70, 88, 60],
			"wind_speed_10m_max": [12.5, 20.1, 5]
		}
	}`)

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	records, err := p.FetchRange(context.Background(), tokyo,
		calendar.NewDate(2025, time.March, 10), calendar.NewDate(2025, time.March, 12))
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records["2025-03-10"]
	assert.Equal(t, 3, r.ConditionCode)
	assert.InDelta(t, 8.1, r.Temperature, 1e-9)
	assert.InDelta(t, 11.2, r.MaxTemp, 1e-9)
	assert.Equal(t, weather.ConditionCloudy, r.Condition())

	// A null mean falls back to the midpoint of min and max.
	assert.InDelta(t, 7.0, records["2025-03-11"].Temperature, 1e-9)

	require.Len(t, *seen, 1)
	q := (*seen)[0].URL.Query()
	assert.Equal(t, "2025-03-10", q.Get("start_date"))
	assert.Equal(t, "2025-03-12", q.Get("end_date"))
	assert.Equal(t, "35.6762", q.Get("latitude"))
	assert.Contains(t, q.Get("daily"), "weather_code")
}

func TestOpenMeteoInconsistentArrays(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{
		"daily": {
			"time": ["2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"],
			"weather_code": [1, 2, 3, 45, 61],
			"temperature_2m_mean": [1, 2, 3, 4, 5],
			"temperature_2m_max": [1, 2, 3, 4],
			"temperature_2m_min": [1, 2, 3, 4, 5],
			"relative_humidity_2m_mean": [1, 2, 3, 4, 5],
			"wind_speed_10m_max": [1, 2, 3, 4, 5]
		}
	}`)

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchRange(context.Background(), tokyo,
		calendar.NewDate(2025, time.March, 10), calendar.NewDate(2025, time.March, 14))
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrMalformedPayload)
}

func TestOpenMeteoMissingArray(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"daily": {"time": ["2025-03-10"], "weather_code": [1]}}`)

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchSingle(context.Background(), tokyo, calendar.NewDate(2025, time.March, 10))
	assert.ErrorIs(t, err, weather.ErrMalformedPayload)
}

func TestOpenMeteoErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv, _ := serve(t, http.StatusInternalServerError, `{}`)
		p := NewOpenMeteoProvider(srv.Client(), srv.URL)
		_, err := p.FetchSingle(context.Background(), tokyo, calendar.NewDate(2025, time.March, 10))
		assert.ErrorIs(t, err, weather.ErrTransport)
	})

	t.Run("bad json", func(t *testing.T) {
		srv, _ := serve(t, http.StatusOK, `{"daily": [`)
		p := NewOpenMeteoProvider(srv.Client(), srv.URL)
		_, err := p.FetchSingle(context.Background(), tokyo, calendar.NewDate(2025, time.March, 10))
		assert.ErrorIs(t, err, weather.ErrDecode)
	})

	t.Run("provider reported error", func(t *testing.T) {
		srv, _ := serve(t, http.StatusOK, `{"error": true, "reason": "out of range"}`)
		p := NewOpenMeteoProvider(srv.Client(), srv.URL)
		_, err := p.FetchSingle(context.Background(), tokyo, calendar.NewDate(2025, time.March, 10))
		assert.ErrorIs(t, err, weather.ErrMalformedPayload)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		p := NewOpenMeteoProvider(http.DefaultClient, "::not a url")
		_, err := p.FetchSingle(context.Background(), tokyo, calendar.NewDate(2025, time.March, 10))
		assert.ErrorIs(t, err, weather.ErrInvalidEndpoint)
	})

	t.Run("invalid position", func(t *testing.T) {
		p := NewOpenMeteoProvider(http.DefaultClient, "")
		_, err := p.FetchSingle(context.Background(), weather.Position{}, calendar.NewDate(2025, time.March, 10))
		assert.ErrorIs(t, err, weather.ErrInvalidEndpoint)
	})
}

func TestOpenMeteoFetchCurrent(t *testing.T) {
	srv, seen := serve(t, http.StatusOK, `{
		"current": {"time": "2025-03-10T14:15", "weather_code": 80, "temperature_2m": 9.4,
			"relative_humidity_2m": 77, "wind_speed_10m": 14.2},
		"daily": {
			"time": ["2025-03-10"],
			"weather_code": [80],
			"temperature_2m_mean": [8],
			"temperature_2m_max": [11.5],
			"temperature_2m_min": [3.2],
			"relative_humidity_2m_mean": [75],
			"wind_speed_10m_max": [22]
		}
	}`)

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	r, err := p.FetchCurrent(context.Background(), tokyo)
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2025, time.March, 10), r.Date)
	assert.Equal(t, 80, r.ConditionCode)
	assert.InDelta(t, 9.4, r.Temperature, 1e-9)
	assert.InDelta(t, 3.2, r.MinTemp, 1e-9)
	assert.InDelta(t, 11.5, r.MaxTemp, 1e-9)
	assert.Equal(t, weather.ConditionRain, r.Condition())

	require.Len(t, *seen, 1)
	assert.NotEmpty(t, (*seen)[0].URL.Query().Get("current"))
}

func TestOpenMeteoWindow(t *testing.T) {
	past, future := NewOpenMeteoProvider(nil, "").Window()
	assert.Positive(t, past)
	assert.Equal(t, 16, future)
}
