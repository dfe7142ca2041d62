package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/calendar-weather/internal/metrics"
	"github.com/i474232898/calendar-weather/internal/schedule"
)

const (
	planTag    = "plan"
	weatherTag = "weather"
)

// Planner produces the instants at which the calendar must be regenerated.
type Planner interface {
	PlanRefreshes(now time.Time) schedule.Plan
}

// RefreshFunc regenerates whatever the host displays. reason is "plan" for
// plan instants and "cron" for the periodic weather refresh.
type RefreshFunc func(ctx context.Context, reason string) error

// Options configures a Scheduler.
type Options struct {
	Planner Planner
	Refresh RefreshFunc
	// WeatherCron is a standard five-field cron expression; empty disables the job.
	WeatherCron string
	// Budget bounds one refresh.
	Budget   time.Duration
	Location *time.Location
	Logger   *zap.SugaredLogger
}

// Scheduler runs refreshes at every planned instant and replans after each one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	planner   Planner
	refresh   RefreshFunc
	cron      string
	budget    time.Duration
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	planned map[int64]time.Time
}

// New creates a new Scheduler.
func New(opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = 25 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		planner:   opts.Planner,
		refresh:   opts.Refresh,
		cron:      opts.WeatherCron,
		budget:    budget,
		logger:    logger,
		planned:   make(map[int64]time.Time),
	}
}

// Start schedules the plan for now and the periodic weather job, then starts
// the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cron != "" {
		_, err := s.scheduler.Cron(s.cron).Tag(weatherTag).Do(func() {
			s.run("cron")
		})
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return s.Replan(time.Now())
}

// Replan adds jobs for every instant of the plan for now that is not already
// scheduled. Instants planned earlier stay scheduled until they fire.
func (s *Scheduler) Replan(now time.Time) error {
	plan := s.planner.PlanRefreshes(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, at := range plan {
		key := at.UnixNano()
		if _, ok := s.planned[key]; ok {
			continue
		}
		delay := time.Until(at)
		if delay <= 0 {
			continue
		}

		_, err := s.scheduler.Every(delay).WaitForSchedule().LimitRunsTo(1).Tag(planTag).Do(func() {
			s.fire(at)
		})
		if err != nil {
			return err
		}
		s.planned[key] = at
		metrics.ScheduledRefreshes.WithLabelValues("planned").Inc()
	}

	next, _ := plan.Next()
	s.logger.Infow("refresh plan scheduled", "instants", len(plan), "next", next)
	return nil
}

// Planned returns the scheduled instants that have not fired yet, ascending.
func (s *Scheduler) Planned() schedule.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]time.Time, 0, len(s.planned))
	for _, at := range s.planned {
		out = append(out, at)
	}
	return schedule.Sorted(out)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) fire(at time.Time) {
	s.mu.Lock()
	delete(s.planned, at.UnixNano())
	s.mu.Unlock()

	metrics.ScheduledRefreshes.WithLabelValues("fired").Inc()
	s.run(planTag)

	if err := s.Replan(time.Now()); err != nil {
		s.logger.Errorw("failed to replan refreshes", "error", err)
	}
}

func (s *Scheduler) run(reason string) {
	if s.refresh == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.budget)
	defer cancel()

	start := time.Now()
	if err := s.refresh(ctx, reason); err != nil {
		s.logger.Warnw("scheduled refresh finished with errors", "reason", reason, "error", err)
		return
	}
	s.logger.Infow("scheduled refresh completed", "reason", reason, "took", time.Since(start))
}
