package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/schedule"
	"github.com/i474232898/calendar-weather/internal/session"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// stepPlanner plans two instants shortly after the first call and nothing afterwards.
type stepPlanner struct {
	mu    sync.Mutex
	later time.Time
}

func (p *stepPlanner) PlanRefreshes(now time.Time) schedule.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.later.IsZero() {
		return schedule.Plan{p.later}
	}
	p.later = now.Add(time.Hour)
	return schedule.Plan{now.Add(50 * time.Millisecond), now.Add(120 * time.Millisecond)}
}

func TestSchedulerFiresPlannedInstants(t *testing.T) {
	fired := make(chan string, 8)
	s := New(Options{
		Planner: &stepPlanner{},
		Refresh: func(_ context.Context, reason string) error {
			fired <- reason
			return nil
		},
		Location: time.UTC,
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case reason := <-fired:
			assert.Equal(t, "plan", reason)
		case <-time.After(3 * time.Second):
			t.Fatalf("refresh %d did not fire", i+1)
		}
	}

	// Both fired; only the replanned instant an hour out remains.
	require.Eventually(t, func() bool { return len(s.Planned()) == 1 }, time.Second, 10*time.Millisecond)
	next, ok := s.Planned().Next()
	require.True(t, ok)
	assert.True(t, next.After(time.Now().Add(50*time.Minute)))
}

func TestReplanSkipsKnownInstants(t *testing.T) {
	at := time.Now().Add(time.Hour).Truncate(time.Second)
	s := New(Options{Planner: fixedPlanner{at, at.Add(time.Hour)}, Location: time.UTC})
	defer s.Stop()

	require.NoError(t, s.Replan(time.Now()))
	require.NoError(t, s.Replan(time.Now()))
	assert.Len(t, s.Planned(), 2)
}

type fixedPlanner schedule.Plan

func (p fixedPlanner) PlanRefreshes(time.Time) schedule.Plan { return schedule.Plan(p) }

func TestStartRejectsBadCron(t *testing.T) {
	s := New(Options{Planner: fixedPlanner{}, WeatherCron: "every now and then"})
	defer s.Stop()
	assert.Error(t, s.Start())
}

type countingForecaster struct {
	mu     sync.Mutex
	ranges []string
	fail   bool
}

func (f *countingForecaster) Name() string { return "counting" }

func (f *countingForecaster) FetchRange(_ context.Context, _ weather.Position, start, end calendar.Date) (map[string]weather.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, start.Key()+".."+end.Key())
	if f.fail {
		return nil, weather.ErrInvalidEndpoint
	}
	out := map[string]weather.Record{}
	for _, d := range calendar.Range(start, end) {
		out[d.Key()] = weather.Record{Date: d}
	}
	return out, nil
}

func (f *countingForecaster) FetchSingle(ctx context.Context, pos weather.Position, d calendar.Date) (weather.Record, error) {
	out, err := f.FetchRange(ctx, pos, d, d)
	return out[d.Key()], err
}

type staticLocator struct{}

func (staticLocator) Resolve(context.Context, int) (weather.Position, error) {
	return weather.Position{Lat: 52.52, Lon: 13.40, City: "Berlin"}, nil
}

func (staticLocator) Default(int) weather.Position {
	return weather.Position{Lat: 52.52, Lon: 13.40, City: "Berlin"}
}

func TestWeatherRefreshUsesFreshBackgroundSession(t *testing.T) {
	fc := &countingForecaster{}
	interactive := session.New(session.Budget{ProviderCalls: 0})
	p := weather.NewPipeline(weather.Options{
		Forecaster: fc,
		Locator:    staticLocator{},
		Session:    interactive,
		Mode:       weather.ModeMonthly,
		Location:   time.UTC,
	})

	now := func() time.Time { return time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC) }
	refresh := WeatherRefresh([]Target{{Pipeline: p, Range: MonthRange(time.Monday, time.UTC)}}, session.Background, now)

	require.NoError(t, refresh(context.Background(), "plan"))
	require.NoError(t, refresh(context.Background(), "cron"))
	assert.Equal(t, []string{"2024-01-29..2024-03-03", "2024-01-29..2024-03-03"}, fc.ranges)
	// The interactive session was never touched.
	assert.Equal(t, 0, interactive.Used())

	fc.fail = true
	err := refresh(context.Background(), "cron")
	assert.True(t, errors.Is(err, weather.ErrInvalidEndpoint))
}

func TestTodayRange(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start, end := TodayRange(tokyo)(time.Date(2024, 2, 10, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, calendar.NewDate(2024, 2, 11), start)
	assert.Equal(t, start, end)
}
