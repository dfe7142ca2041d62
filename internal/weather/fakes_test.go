package weather

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/calendar-weather/internal/calendar"
)

var (
	testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	today   = calendar.NewDate(2025, time.March, 10)
	tokyo   = Position{Lat: 35.68, Lon: 139.65, City: "Tokyo"}
	paris   = Position{Lat: 48.86, Lon: 2.35, City: "Paris"}
)

type fakeForecaster struct {
	mu sync.Mutex

	rangeErr   error
	rangeData  map[string]Record
	singleErr  map[string]error
	current    *Record
	window     [2]int
	rangeCalls int
	single     []string
	positions  []Position
}

func (f *fakeForecaster) Name() string { return "fake" }

func (f *fakeForecaster) FetchRange(_ context.Context, pos Position, start, end calendar.Date) (map[string]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls++
	f.positions = append(f.positions, pos)
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	if f.rangeData != nil {
		return f.rangeData, nil
	}
	out := map[string]Record{}
	for _, d := range calendar.Range(start, end) {
		out[d.Key()] = Record{Date: d, ConditionCode: 1, Temperature: float64(d.Day)}
	}
	return out, nil
}

func (f *fakeForecaster) FetchSingle(_ context.Context, pos Position, date calendar.Date) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.single = append(f.single, date.Key())
	f.positions = append(f.positions, pos)
	if err := f.singleErr[date.Key()]; err != nil {
		return Record{}, err
	}
	return Record{Date: date, ConditionCode: 3, Temperature: float64(date.Day)}, nil
}

// windowed adds a forecast horizon to fakeForecaster.
type windowed struct{ *fakeForecaster }

func (w windowed) Window() (int, int) { return w.window[0], w.window[1] }

// withCurrent adds current conditions to fakeForecaster.
type withCurrent struct{ *fakeForecaster }

func (w withCurrent) FetchCurrent(context.Context, Position) (Record, error) {
	return *w.current, nil
}

type memCache struct {
	mu      sync.Mutex
	entry   *Entry
	writes  []Entry
	ttl     time.Duration
	now     func() time.Time
	failing bool
}

func (c *memCache) Read(ctx context.Context, key string) (Record, bool) {
	e, ok := c.ReadAll(ctx)
	if !ok {
		return Record{}, false
	}
	r, ok := e.Records[key]
	return r, ok
}

func (c *memCache) ReadAll(context.Context) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || !c.entry.Fresh(c.now(), c.ttl) {
		return Entry{}, false
	}
	return *c.entry, true
}

func (c *memCache) Write(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("read-only file system")
	}
	c.writes = append(c.writes, e)
	c.entry = &e
	return nil
}

type fakeSession struct {
	mu       sync.Mutex
	budget   int
	used     int
	resolved bool
	pos      Position
	ok       bool
	index    int
}

// ResolveLocationOnce runs resolve without holding the lock, since resolvers
// call back into the session for the default index.
func (s *fakeSession) ResolveLocationOnce(ctx context.Context, resolve func(ctx context.Context) (Position, error)) (Position, bool) {
	s.mu.Lock()
	first := !s.resolved
	s.resolved = true
	s.mu.Unlock()

	if first {
		pos, err := resolve(ctx)
		s.mu.Lock()
		s.pos, s.ok = pos, err == nil
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.ok
}

func (s *fakeSession) TryConsumeProviderCall() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used >= s.budget {
		return false
	}
	s.used++
	return true
}

func (s *fakeSession) DefaultIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *fakeSession) AdvanceDefault() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index++
	return s.index
}

func (s *fakeSession) Seed(pos Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved, s.pos, s.ok = true, pos, true
}

type fakeLocator struct {
	pos      Position
	err      error
	defaults []Position
	calls    int
	indexes  []int
}

func (l *fakeLocator) Resolve(_ context.Context, index int) (Position, error) {
	l.calls++
	l.indexes = append(l.indexes, index)
	return l.pos, l.err
}

func (l *fakeLocator) Default(i int) Position {
	return l.defaults[i%len(l.defaults)]
}

type fixture struct {
	forecaster *fakeForecaster
	cache      *memCache
	session    *fakeSession
	locator    *fakeLocator
}

func newFixture(budget int) *fixture {
	now := func() time.Time { return testNow }
	return &fixture{
		forecaster: &fakeForecaster{},
		cache:      &memCache{ttl: 6 * time.Hour, now: now},
		session:    &fakeSession{budget: budget},
		locator:    &fakeLocator{pos: tokyo, defaults: []Position{tokyo, paris}},
	}
}

func (f *fixture) pipeline(mode Mode, fc Forecaster) *Pipeline {
	if fc == nil {
		fc = f.forecaster
	}
	return NewPipeline(Options{
		Forecaster: fc,
		Locator:    f.locator,
		Cache:      f.cache,
		Session:    f.session,
		Mode:       mode,
		Policy:     RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, AttemptTimeout: time.Second},
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
	})
}
