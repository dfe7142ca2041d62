package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/metrics"
)

// Horizon is implemented by forecasters that only answer a window around today.
type Horizon interface {
	// Window returns how many days before and after today can be queried.
	Window() (pastDays, futureDays int)
}

// Options configures a Pipeline.
type Options struct {
	Forecaster Forecaster
	Locator    Locator
	Geocoder   Geocoder
	Cache      Cache
	Session    Session
	Mode       Mode
	Policy     RetryPolicy
	// Parallelism bounds concurrent per-date fetches in the fallback path.
	Parallelism int
	Location    *time.Location
	Logger      *zap.SugaredLogger
	Now         func() time.Time
}

// Pipeline resolves a position, fetches forecasts with bounded retries and
// writes successful results to the shared cache.
type Pipeline struct {
	forecaster Forecaster
	locator    Locator
	geocoder   Geocoder
	cache      Cache
	session    Session
	mode       Mode
	policy     RetryPolicy
	parallel   int
	loc        *time.Location
	logger     *zap.SugaredLogger
	now        func() time.Time

	localities   *lru.Cache[string, string]
	forceRefresh *atomic.Bool
}

// NewPipeline creates a new Pipeline.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		forecaster:   opts.Forecaster,
		locator:      opts.Locator,
		geocoder:     opts.Geocoder,
		cache:        opts.Cache,
		session:      opts.Session,
		mode:         opts.Mode,
		policy:       opts.Policy,
		parallel:     opts.Parallelism,
		loc:          opts.Location,
		logger:       opts.Logger,
		now:          opts.Now,
		forceRefresh: atomic.NewBool(false),
	}
	if p.policy.MaxAttempts == 0 {
		p.policy = PolicyFor(Interactive)
	}
	if p.parallel <= 0 {
		p.parallel = 8
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.logger == nil {
		p.logger = zap.NewNop().Sugar()
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.localities, _ = lru.New[string, string](32)
	return p
}

// WithSession returns a copy of the pipeline bound to another session.
func (p *Pipeline) WithSession(s Session, policy RetryPolicy) *Pipeline {
	cp := *p
	cp.session = s
	cp.policy = policy
	cp.forceRefresh = atomic.NewBool(false)
	return &cp
}

// Mode returns the acquisition mode of the pipeline.
func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Cache returns the cache the pipeline writes to.
func (p *Pipeline) Cache() Cache {
	return p.cache
}

// ResolvePosition returns the session position, resolving it on the first call only.
// When resolution has already failed this session, the current default position is used.
func (p *Pipeline) ResolvePosition(ctx context.Context) (Position, error) {
	if p.locator == nil {
		return Position{}, ErrPositionUnavailable
	}
	pos, ok := p.session.ResolveLocationOnce(ctx, func(ctx context.Context) (Position, error) {
		return p.locator.Resolve(ctx, p.session.DefaultIndex())
	})
	if ok {
		return pos, nil
	}

	pos = p.locator.Default(p.session.DefaultIndex())
	if !pos.Valid() {
		return Position{}, ErrPositionUnavailable
	}
	return pos, nil
}

// TryNextDefault advances the rotating default list, makes that position the
// session position and forces the next acquisition to bypass the cache.
func (p *Pipeline) TryNextDefault() (Position, error) {
	if p.locator == nil {
		return Position{}, ErrPositionUnavailable
	}
	idx := p.session.AdvanceDefault()
	pos := p.locator.Default(idx)
	if !pos.Valid() {
		return Position{}, ErrPositionUnavailable
	}
	p.session.Seed(pos)
	p.forceRefresh.Store(true)
	p.logger.Infow("switched to next default position", "index", idx, "city", pos.City)
	return pos, nil
}

// Locality returns a display name for pos. It never affects cache keys.
func (p *Pipeline) Locality(ctx context.Context, pos Position) string {
	if v, ok := p.localities.Get(pos.Key()); ok {
		return v
	}
	name := pos.City
	if p.geocoder != nil {
		if got, err := p.geocoder.Locality(ctx, pos); err != nil {
			p.logger.Debugw("reverse geocoding failed", "position", pos.Key(), "error", err)
		} else if got != "" {
			name = got
		}
	}
	if name != "" {
		p.localities.Add(pos.Key(), name)
	}
	return name
}

// FetchRange issues one range query for start..end and writes the result to the cache.
func (p *Pipeline) FetchRange(ctx context.Context, pos Position, start, end calendar.Date) (map[string]Record, error) {
	if !p.session.TryConsumeProviderCall() {
		return nil, ErrBudgetExhausted
	}
	records, err := p.fetchRange(ctx, pos, start, end)
	if err != nil {
		return nil, err
	}
	p.write(ctx, records)
	return records, nil
}

// FetchSingle fetches one date and writes it to the cache.
func (p *Pipeline) FetchSingle(ctx context.Context, pos Position, date calendar.Date) (Record, error) {
	if !p.session.TryConsumeProviderCall() {
		return Record{}, ErrBudgetExhausted
	}
	r, err := p.fetchSingle(ctx, pos, date)
	if err != nil {
		return Record{}, err
	}
	p.write(ctx, map[string]Record{r.Key(): r})
	return r, nil
}

// FetchDates fetches each date separately and in parallel. Every date costs
// one unit of the session budget; dates the budget cannot pay for, and dates
// that still fail after retries, are reported in a *PartialError while the
// successful ones are merged into a single cache write.
func (p *Pipeline) FetchDates(ctx context.Context, pos Position, dates []calendar.Date) (map[string]Record, error) {
	records, err := p.fetchDates(ctx, pos, dates, 0)
	if len(records) > 0 {
		p.write(ctx, records)
	}
	return records, err
}

// Acquire returns records for start..end: from the cache when it is fresh and
// covers the range, otherwise from one live acquisition.
func (p *Pipeline) Acquire(ctx context.Context, start, end calendar.Date) (map[string]Record, error) {
	start, end = p.clamp(start, end)
	if end.Before(start) {
		return map[string]Record{}, nil
	}

	if !p.forceRefresh.Load() && p.cache != nil {
		if entry, ok := p.cache.ReadAll(ctx); ok && covers(entry, start, end) {
			return entry.Records, nil
		}
	}

	if !p.session.TryConsumeProviderCall() {
		return nil, ErrBudgetExhausted
	}
	pos, err := p.ResolvePosition(ctx)
	if err != nil {
		return nil, err
	}
	p.forceRefresh.Store(false)

	var records map[string]Record
	switch {
	case p.mode == ModeCurrent:
		var r Record
		r, err = p.fetchSingle(ctx, pos, start)
		if err == nil {
			records = map[string]Record{r.Key(): r}
		}
	default:
		records, err = p.fetchRange(ctx, pos, start, end)
		if errors.Is(err, ErrRangeUnsupported) {
			p.logger.Debugw("range query unsupported, fetching per date", "provider", p.forecaster.Name())
			// The unit taken for the range query pays for the first date.
			records, err = p.fetchDates(ctx, pos, calendar.Range(start, end), 1)
		}
	}

	if len(records) > 0 {
		p.write(ctx, records)
	}
	if err != nil {
		p.logger.Warnw("weather acquisition failed", "mode", p.mode.String(), "position", pos.Key(), "error", err)
	}
	return records, err
}

func (p *Pipeline) fetchRange(ctx context.Context, pos Position, start, end calendar.Date) (map[string]Record, error) {
	var records map[string]Record
	err := p.policy.do(ctx, func(ctx context.Context) error {
		r, err := p.forecaster.FetchRange(ctx, pos, start, end)
		metrics.RecordProviderCall(p.forecaster.Name(), "range", err)
		if err != nil {
			return err
		}
		if len(r) == 0 {
			return fmt.Errorf("%w: no dates in range %s..%s", ErrMalformedPayload, start, end)
		}
		records = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *Pipeline) fetchSingle(ctx context.Context, pos Position, date calendar.Date) (Record, error) {
	today := calendar.DateOf(p.now().In(p.loc))
	cf, current := p.forecaster.(CurrentForecaster)

	var record Record
	err := p.policy.do(ctx, func(ctx context.Context) error {
		var (
			r   Record
			err error
			op  = "single"
		)
		if current && p.mode == ModeCurrent && date == today {
			op = "current"
			r, err = cf.FetchCurrent(ctx, pos)
			// Providers date current conditions in the position's zone,
			// which may already be tomorrow or still yesterday here.
			if err == nil && r.Date != date {
				p.logger.Debugw("re-keying current conditions to device date", "reported", r.Date, "date", date)
				r.Date = date
			}
		} else {
			r, err = p.forecaster.FetchSingle(ctx, pos, date)
		}
		metrics.RecordProviderCall(p.forecaster.Name(), op, err)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	return record, err
}

// fetchDates charges one budget unit per date, in date order, before any
// request starts. prepaid dates are already paid for by the caller.
func (p *Pipeline) fetchDates(ctx context.Context, pos Position, dates []calendar.Date, prepaid int) (map[string]Record, error) {
	var (
		mu      sync.Mutex
		records = make(map[string]Record, len(dates))
		failed  = make(map[string]error)
		funded  = make([]calendar.Date, 0, len(dates))
	)
	for i, d := range dates {
		if i < prepaid || p.session.TryConsumeProviderCall() {
			funded = append(funded, d)
			continue
		}
		failed[d.Key()] = ErrBudgetExhausted
	}
	if len(funded) == 0 && len(dates) > 0 {
		return nil, ErrBudgetExhausted
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for _, d := range funded {
		g.Go(func() error {
			r, err := p.fetchSingle(gctx, pos, d)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[d.Key()] = err
				return nil
			}
			records[d.Key()] = r
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		p.logger.Warnw("some dates failed", "failed", len(failed), "succeeded", len(records))
		return records, &PartialError{Failed: failed}
	}
	return records, nil
}

// write replaces the cache entry. A failed write only costs freshness.
func (p *Pipeline) write(ctx context.Context, records map[string]Record) {
	if p.cache == nil {
		return
	}
	entry := Entry{Records: records, WrittenAt: p.now()}
	if err := p.cache.Write(ctx, entry); err != nil {
		p.logger.Errorw("failed to write weather cache", "mode", p.mode.String(), "error", err)
	}
}

// clamp limits start..end to what the forecaster can answer.
func (p *Pipeline) clamp(start, end calendar.Date) (calendar.Date, calendar.Date) {
	h, ok := p.forecaster.(Horizon)
	if !ok {
		return start, end
	}
	past, future := h.Window()
	today := calendar.DateOf(p.now().In(p.loc))
	if lo := today.AddDays(-past); start.Before(lo) {
		start = lo
	}
	if hi := today.AddDays(future - 1); end.After(hi) {
		end = hi
	}
	return start, end
}

func covers(e Entry, start, end calendar.Date) bool {
	for d := start; !d.After(end); d = d.AddDays(1) {
		if _, ok := e.Records[d.Key()]; !ok {
			return false
		}
	}
	return true
}
