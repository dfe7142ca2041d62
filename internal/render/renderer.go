package render

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/metrics"
	"github.com/i474232898/calendar-weather/internal/schedule"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// DefaultBudget is the wall-clock limit for one snapshot.
const DefaultBudget = 25 * time.Second

// Options configures a Renderer.
type Options struct {
	Kind      Kind
	WeekStart time.Weekday
	Location  *time.Location
	Source    *weather.Source
	Planner   *schedule.Planner
	// Budget bounds Snapshot. Zero means DefaultBudget.
	Budget time.Duration
	// OnUpdate receives snapshots produced by background acquisitions.
	OnUpdate func(Snapshot)
	Logger   *zap.SugaredLogger
	Now      func() time.Time
}

// Renderer builds placeholder, current and future snapshots for one surface.
type Renderer struct {
	kind      Kind
	weekStart time.Weekday
	loc       *time.Location
	source    *weather.Source
	planner   *schedule.Planner
	budget    time.Duration
	onUpdate  func(Snapshot)
	logger    *zap.SugaredLogger
	now       func() time.Time

	inflight singleflight.Group
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		kind:      opts.Kind,
		weekStart: opts.WeekStart,
		loc:       opts.Location,
		source:    opts.Source,
		planner:   opts.Planner,
		budget:    opts.Budget,
		onUpdate:  opts.OnUpdate,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.budget <= 0 {
		r.budget = DefaultBudget
	}
	if r.planner == nil {
		r.planner = schedule.NewPlanner(r.loc)
	}
	if r.logger == nil {
		r.logger = zap.NewNop().Sugar()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Kind returns the surface the renderer draws.
func (r *Renderer) Kind() Kind {
	return r.kind
}

// Now returns the renderer's current time in its location.
func (r *Renderer) Now() time.Time {
	return r.now().In(r.loc)
}

// Placeholder returns a snapshot with synthetic weather for every cell. It
// does no I/O.
func (r *Renderer) Placeholder() Snapshot {
	now := r.now().In(r.loc)
	snap := r.layout(now)
	for i := range snap.Cells {
		snap.Cells[i].Weather = forecastOf(weather.Synthesize(snap.Cells[i].Date))
		snap.Cells[i].Synthetic = true
	}
	snap.setToday()
	return snap
}

// Snapshot renders the surface at now. Acquisition is bounded by the budget;
// when it runs out the snapshot uses whatever the cache (or, for widgets, the
// synthetic filler) provides.
func (r *Renderer) Snapshot(ctx context.Context, now time.Time) Snapshot {
	start := time.Now()
	defer func() {
		metrics.SnapshotDuration.WithLabelValues(r.kind.String()).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()
	return r.render(ctx, now, true)
}

// Timeline returns the snapshot for now followed by one for every planned
// refresh instant, and the plan itself. Future entries never acquire.
func (r *Renderer) Timeline(ctx context.Context, now time.Time) ([]Snapshot, schedule.Plan) {
	plan := r.planner.PlanRefreshes(now)
	entries := make([]Snapshot, 0, len(plan)+1)
	entries = append(entries, r.Snapshot(ctx, now))
	for _, at := range plan {
		entries = append(entries, r.render(ctx, at, false))
	}
	return entries, plan
}

// SnapshotAsync renders immediately from the cache and starts a background
// acquisition. Concurrent calls share one acquisition; its result is passed
// to OnUpdate.
func (r *Renderer) SnapshotAsync(ctx context.Context, now time.Time) Snapshot {
	snap := r.render(ctx, now, false)
	if r.source == nil || r.source.Role() != weather.RoleAcquirer {
		return snap
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		_, _, _ = r.inflight.Do("acquire", func() (any, error) {
			fresh := r.Snapshot(bg, now)
			if r.onUpdate != nil {
				r.onUpdate(fresh)
			}
			return fresh, nil
		})
	}()
	return snap
}

// layout builds the cells for now without weather.
func (r *Renderer) layout(now time.Time) Snapshot {
	today := calendar.DateOf(now)
	snap := Snapshot{
		Kind:   r.kind,
		AsOf:   now,
		Labels: labelsAt(now),
	}

	if r.kind == TodayWidget {
		snap.Cells = []Cell{{
			Day:     calendar.Day{Number: today.Day, Membership: calendar.Current, Date: today},
			IsToday: true,
		}}
		return snap
	}

	grid := calendar.Generate(today, r.weekStart)
	snap.Weeks = len(grid) / 7
	snap.Cells = make([]Cell, len(grid))
	for i, d := range grid {
		snap.Cells[i] = Cell{Day: d, IsToday: d.Date == today}
	}
	return snap
}

func (r *Renderer) render(ctx context.Context, at time.Time, live bool) Snapshot {
	now := at.In(r.loc)
	snap := r.layout(now)
	if r.source == nil {
		snap.setToday()
		return snap
	}

	dates := make([]calendar.Date, len(snap.Cells))
	for i, c := range snap.Cells {
		dates[i] = c.Date
	}

	lookup := r.source.Lookup(ctx, dates, live)
	for i := range snap.Cells {
		rec, synthetic, ok := lookup.Get(snap.Cells[i].Date)
		if !ok {
			continue
		}
		snap.Cells[i].Weather = forecastOf(rec)
		snap.Cells[i].Synthetic = synthetic
	}
	snap.Live = lookup.Live
	if lookup.Err != nil {
		snap.Status = weather.Message(lookup.Err)
		r.logger.Debugw("rendering with best-available weather", "kind", r.kind.String(), "error", lookup.Err)
	}
	if live {
		snap.Labels.Locality = r.locality(ctx)
	}
	snap.setToday()
	return snap
}

func (r *Renderer) locality(ctx context.Context) string {
	p := r.source.Pipeline()
	if p == nil {
		return ""
	}
	pos, err := p.ResolvePosition(ctx)
	if err != nil {
		return ""
	}
	return p.Locality(ctx, pos)
}

func (s *Snapshot) setToday() {
	for i := range s.Cells {
		if s.Cells[i].IsToday {
			c := s.Cells[i]
			s.Today = &c
			return
		}
	}
}
