package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/calendar-weather/internal/calendar"
)

func TestAcquireRangeWritesCache(t *testing.T) {
	f := newFixture(5)
	p := f.pipeline(ModeMonthly, nil)

	start, end := calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 31)
	records, err := p.Acquire(context.Background(), start, end)
	require.NoError(t, err)
	assert.Len(t, records, 31)
	assert.Equal(t, 1, f.forecaster.rangeCalls)
	assert.Equal(t, 1, f.session.used)

	require.Len(t, f.cache.writes, 1)
	assert.Len(t, f.cache.writes[0].Records, 31)
	assert.Equal(t, testNow, f.cache.writes[0].WrittenAt)
}

func TestAcquireServesCoveredRangeFromCache(t *testing.T) {
	f := newFixture(5)
	p := f.pipeline(ModeMonthly, nil)
	ctx := context.Background()

	start, end := calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 31)
	_, err := p.Acquire(ctx, start, end)
	require.NoError(t, err)

	records, err := p.Acquire(ctx, calendar.NewDate(2025, 3, 5), calendar.NewDate(2025, 3, 12))
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	assert.Equal(t, 1, f.forecaster.rangeCalls)
	assert.Equal(t, 1, f.session.used)

	// A range the entry does not cover goes back to the provider.
	_, err = p.Acquire(ctx, calendar.NewDate(2025, 3, 20), calendar.NewDate(2025, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, f.forecaster.rangeCalls)
}

func TestAcquireMalformedRangeDoesNotWrite(t *testing.T) {
	f := newFixture(5)
	f.forecaster.rangeErr = fmt.Errorf("%w: daily.time has 5 entries, weather_code has 4", ErrMalformedPayload)
	p := f.pipeline(ModeMonthly, nil)

	records, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 5))
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, records)
	assert.Empty(t, f.cache.writes)
	// Retried within the same budget unit.
	assert.Equal(t, 2, f.forecaster.rangeCalls)
	assert.Equal(t, 1, f.session.used)
}

func TestAcquireBudgetExhausted(t *testing.T) {
	f := newFixture(1)
	p := f.pipeline(ModeMonthly, nil)
	ctx := context.Background()

	_, err := p.Acquire(ctx, calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 2))
	require.NoError(t, err)

	_, err = p.Acquire(ctx, calendar.NewDate(2025, 4, 1), calendar.NewDate(2025, 4, 2))
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, 1, f.forecaster.rangeCalls)
	assert.Equal(t, "Showing saved weather", Message(err))
}

func TestAcquireNonRetryableErrorStopsEarly(t *testing.T) {
	f := newFixture(5)
	f.forecaster.rangeErr = fmt.Errorf("%w: bad base URL", ErrInvalidEndpoint)
	p := f.pipeline(ModeMonthly, nil)

	_, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 2))
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	assert.Equal(t, 1, f.forecaster.rangeCalls)
}

func TestAcquirePerDatePartialSuccess(t *testing.T) {
	f := newFixture(5)
	f.forecaster.rangeErr = ErrRangeUnsupported
	f.forecaster.singleErr = map[string]error{
		"2025-03-03": fmt.Errorf("%w: HTTP 503", ErrTransport),
	}
	p := f.pipeline(ModeMonthly, nil)

	records, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 5))

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Contains(t, partial.Failed, "2025-03-03")
	assert.ErrorIs(t, err, ErrTransport)

	assert.Len(t, records, 4)
	assert.NotContains(t, records, "2025-03-03")
	require.Len(t, f.cache.writes, 1)
	assert.Len(t, f.cache.writes[0].Records, 4)

	// The range attempt pays for the first date, the other four pay their own.
	assert.Equal(t, 5, f.session.used)
	// Four successes plus two attempts for the failing date.
	assert.Len(t, f.forecaster.single, 6)
}

func TestAcquirePerDateStopsAtBudget(t *testing.T) {
	f := newFixture(3)
	f.forecaster.rangeErr = ErrRangeUnsupported
	p := f.pipeline(ModeMonthly, nil)

	records, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 31))

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Len(t, partial.Failed, 28)
	assert.Len(t, records, 3)
	assert.Contains(t, records, "2025-03-03")
	assert.Len(t, f.forecaster.single, 3)
	assert.Equal(t, 3, f.session.used)
}

func TestFetchDatesChargesEachDate(t *testing.T) {
	f := newFixture(4)
	p := f.pipeline(ModeMonthly, nil)
	dates := calendar.Range(calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 10))

	records, err := p.FetchDates(context.Background(), tokyo, dates)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Len(t, partial.Failed, 6)
	assert.Contains(t, partial.Failed, "2025-03-05")
	assert.Len(t, records, 4)
	assert.Contains(t, records, "2025-03-04")
	assert.NotContains(t, records, "2025-03-05")
	assert.Len(t, f.forecaster.single, 4)
	assert.Equal(t, 4, f.session.used)

	_, err = p.FetchSingle(context.Background(), tokyo, today)
	assert.ErrorIs(t, err, ErrBudgetExhausted)

	records, err = p.FetchDates(context.Background(), tokyo, dates)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Empty(t, records)
	assert.Len(t, f.forecaster.single, 4)
}

func TestAcquireClampsToProviderWindow(t *testing.T) {
	f := newFixture(5)
	f.forecaster.window = [2]int{2, 3}
	p := f.pipeline(ModeMonthly, windowed{f.forecaster})

	records, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 31))
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Contains(t, records, "2025-03-08")
	assert.Contains(t, records, "2025-03-12")
	assert.NotContains(t, records, "2025-03-13")

	// Entirely outside the window: nothing to fetch, nothing spent.
	records, err = p.Acquire(context.Background(), calendar.NewDate(2025, 5, 1), calendar.NewDate(2025, 5, 31))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, f.session.used)
}

func TestAcquireCurrentMode(t *testing.T) {
	f := newFixture(5)
	f.cache.ttl = time.Hour
	f.forecaster.current = &Record{Date: today, ConditionCode: 95, Temperature: 21.4}
	p := f.pipeline(ModeCurrent, withCurrent{f.forecaster})

	records, err := p.Acquire(context.Background(), today, today)
	require.NoError(t, err)
	require.Contains(t, records, today.Key())
	assert.Equal(t, 95, records[today.Key()].ConditionCode)
	assert.Empty(t, f.forecaster.single)

	// Other dates still use the single-date query.
	tomorrow := today.AddDays(1)
	records, err = p.Acquire(context.Background(), tomorrow, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, []string{tomorrow.Key()}, f.forecaster.single)
	assert.Contains(t, records, tomorrow.Key())
}

func TestAcquireCurrentRecordKeyedToRequestedDate(t *testing.T) {
	f := newFixture(3)
	// The provider reports the position's local date, already tomorrow there.
	f.forecaster.current = &Record{Date: today.AddDays(1), ConditionCode: 2, Temperature: 8}
	p := f.pipeline(ModeCurrent, withCurrent{f.forecaster})
	ctx := context.Background()

	for range 4 {
		records, err := p.Acquire(ctx, today, today)
		require.NoError(t, err)
		require.Contains(t, records, today.Key())
		assert.Equal(t, today, records[today.Key()].Date)
	}

	require.Len(t, f.cache.writes, 1)
	assert.Contains(t, f.cache.writes[0].Records, today.Key())
	assert.NotContains(t, f.cache.writes[0].Records, today.AddDays(1).Key())
	assert.Equal(t, 1, f.session.used)
}

func TestTryNextDefaultForcesRefresh(t *testing.T) {
	f := newFixture(5)
	p := f.pipeline(ModeMonthly, nil)
	ctx := context.Background()
	start, end := calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 3)

	_, err := p.Acquire(ctx, start, end)
	require.NoError(t, err)

	pos, err := p.TryNextDefault()
	require.NoError(t, err)
	assert.Equal(t, "Paris", pos.City)

	_, err = p.Acquire(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, f.forecaster.rangeCalls)
	assert.Equal(t, "Paris", f.forecaster.positions[1].City)

	// The bypass applies once.
	_, err = p.Acquire(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, f.forecaster.rangeCalls)
}

func TestResolvePositionFallsBackToDefault(t *testing.T) {
	f := newFixture(5)
	f.locator.err = errors.New("offline")
	p := f.pipeline(ModeMonthly, nil)

	for range 3 {
		pos, err := p.ResolvePosition(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Tokyo", pos.City)
	}
	assert.Equal(t, 1, f.locator.calls)
}

func TestResolvePositionPassesDefaultIndex(t *testing.T) {
	f := newFixture(5)
	f.session.AdvanceDefault()
	p := f.pipeline(ModeMonthly, nil)

	done := make(chan Position, 1)
	go func() {
		pos, err := p.ResolvePosition(context.Background())
		assert.NoError(t, err)
		done <- pos
	}()

	select {
	case pos := <-done:
		assert.Equal(t, "Tokyo", pos.City)
	case <-time.After(5 * time.Second):
		t.Fatal("ResolvePosition did not return")
	}
	assert.Equal(t, []int{1}, f.locator.indexes)
}

func TestCacheWriteFailureKeepsRecords(t *testing.T) {
	f := newFixture(5)
	f.cache.failing = true
	p := f.pipeline(ModeMonthly, nil)

	records, err := p.Acquire(context.Background(), calendar.NewDate(2025, 3, 1), calendar.NewDate(2025, 3, 2))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWithSessionHasOwnBudget(t *testing.T) {
	f := newFixture(1)
	p := f.pipeline(ModeMonthly, nil)
	ctx := context.Background()

	_, err := p.Acquire(ctx, calendar.NewDate(2025, 4, 1), calendar.NewDate(2025, 4, 2))
	require.NoError(t, err)

	bg := p.WithSession(&fakeSession{budget: 2}, PolicyFor(Background))
	_, err = bg.Acquire(ctx, calendar.NewDate(2025, 5, 1), calendar.NewDate(2025, 5, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, f.forecaster.rangeCalls)
}

type nameGeocoder struct{ calls int }

func (g *nameGeocoder) Locality(context.Context, Position) (string, error) {
	g.calls++
	return "Chiyoda", nil
}

func TestLocalityIsMemoized(t *testing.T) {
	g := &nameGeocoder{}
	p := NewPipeline(Options{Geocoder: g})

	assert.Equal(t, "Chiyoda", p.Locality(context.Background(), tokyo))
	assert.Equal(t, "Chiyoda", p.Locality(context.Background(), tokyo))
	assert.Equal(t, 1, g.calls)

	plain := NewPipeline(Options{})
	assert.Equal(t, "Paris", plain.Locality(context.Background(), paris))
}

func TestRetryPolicy(t *testing.T) {
	interactive := PolicyFor(Interactive)
	assert.Equal(t, 2, interactive.MaxAttempts)
	assert.Equal(t, 2*time.Second, interactive.Delay(2))

	background := PolicyFor(Background)
	assert.Equal(t, 3, background.MaxAttempts)
	assert.Equal(t, 15*time.Second, background.AttemptTimeout)
	assert.Equal(t, 4*time.Second, background.Delay(2))

	calls := 0
	err := RetryPolicy{MaxAttempts: 3}.do(context.Background(), func(context.Context) error {
		calls++
		return ErrBudgetExhausted
	})
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	calls = 0
	err = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}.do(ctx, func(context.Context) error {
		calls++
		cancel()
		return ErrTransport
	})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, calls)
}
