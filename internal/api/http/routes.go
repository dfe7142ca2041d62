package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/render"
	"github.com/i474232898/calendar-weather/internal/schedule"
	"github.com/i474232898/calendar-weather/internal/weather"
)

var validate = validator.New()

// maxWeatherSpan bounds the date range of one /weather request.
const maxWeatherSpan = 62

// Handlers carries what the HTTP surface needs from the host app.
type Handlers struct {
	WeekStart time.Weekday
	Location  *time.Location
	Planner   *schedule.Planner
	Renderers map[render.Kind]*render.Renderer
	Pipelines map[weather.Mode]*weather.Pipeline
	Now       func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().In(h.Location)
	}
	return time.Now().In(h.Location)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	if h.Location == nil {
		h.Location = time.Local
	}
	if h.Planner == nil {
		h.Planner = schedule.NewPlanner(h.Location)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/calendar/grid", func(c *fiber.Ctx) error {
		var q gridQuery
		if err := q.bind(c, h); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		grid := calendar.Generate(q.ref, q.weekStart)
		return c.JSON(fiber.Map{
			"reference": q.ref,
			"weekStart": q.weekStart.String(),
			"weeks":     grid.Weeks(),
		})
	})

	v1.Get("/refresh-plan", func(c *fiber.Ctx) error {
		at := h.now()
		if s := c.Query("at"); s != "" {
			ts, err := parseTime(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			at = ts
		}

		plan := h.Planner.PlanRefreshes(at)
		next, _ := plan.Next()
		return c.JSON(fiber.Map{
			"now":      at,
			"next":     next,
			"instants": plan,
		})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var q weatherQuery
		if err := q.bind(c, h); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, ok := h.Pipelines[q.mode]
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather acquisition is not configured")
		}

		records, err := p.Acquire(c.UserContext(), q.from, q.to)
		resp := fiber.Map{
			"mode":    q.mode.String(),
			"from":    q.from,
			"to":      q.to,
			"records": records,
		}
		var partial *weather.PartialError
		switch {
		case err == nil:
			return c.JSON(resp)
		case errors.As(err, &partial):
			failed := make([]string, 0, len(partial.Failed))
			for k := range partial.Failed {
				failed = append(failed, k)
			}
			resp["failed"] = failed
			resp["status"] = weather.Message(err)
			return c.Status(fiber.StatusPartialContent).JSON(resp)
		case errors.Is(err, weather.ErrBudgetExhausted):
			return fiber.NewError(fiber.StatusTooManyRequests, weather.Message(err))
		case errors.Is(err, weather.ErrPositionUnavailable):
			return fiber.NewError(fiber.StatusServiceUnavailable, weather.Message(err))
		default:
			return fiber.NewError(fiber.StatusBadGateway, weather.Message(err))
		}
	})

	v1.Get("/placeholder", func(c *fiber.Ctx) error {
		r, err := h.renderer(c)
		if err != nil {
			return err
		}
		return c.JSON(r.Placeholder())
	})

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		r, err := h.renderer(c)
		if err != nil {
			return err
		}
		if c.QueryBool("async") {
			return c.JSON(r.SnapshotAsync(c.UserContext(), h.now()))
		}
		return c.JSON(r.Snapshot(c.UserContext(), h.now()))
	})

	v1.Get("/timeline", func(c *fiber.Ctx) error {
		r, err := h.renderer(c)
		if err != nil {
			return err
		}
		entries, plan := r.Timeline(c.UserContext(), h.now())
		return c.JSON(fiber.Map{
			"entries": entries,
			"plan":    plan,
		})
	})

	v1.Post("/location/next", func(c *fiber.Ctx) error {
		if len(h.Pipelines) == 0 {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather acquisition is not configured")
		}

		var pos weather.Position
		for _, mode := range []weather.Mode{weather.ModeMonthly, weather.ModeCurrent} {
			p, ok := h.Pipelines[mode]
			if !ok {
				continue
			}
			next, err := p.TryNextDefault()
			if err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, weather.Message(err))
			}
			pos = next
		}
		return c.JSON(pos)
	})
}

func (h *Handlers) renderer(c *fiber.Ctx) (*render.Renderer, error) {
	kind, err := render.ParseKind(c.Query("kind"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	r, ok := h.Renderers[kind]
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "no renderer for kind "+kind.String())
	}
	return r, nil
}

// gridQuery holds query parameters for the grid endpoint.
type gridQuery struct {
	Date      string `validate:"omitempty,datetime=2006-01-02"`
	WeekStart string `validate:"omitempty,oneof=monday sunday mon sun"`

	ref       calendar.Date
	weekStart time.Weekday
}

func (q *gridQuery) bind(c *fiber.Ctx, h *Handlers) error {
	q.Date = c.Query("date")
	q.WeekStart = c.Query("weekStart")
	if err := validate.Struct(q); err != nil {
		return err
	}

	q.ref = calendar.DateOf(h.now())
	if q.Date != "" {
		d, err := calendar.ParseDate(q.Date)
		if err != nil {
			return err
		}
		q.ref = d
	}

	q.weekStart = h.WeekStart
	if q.WeekStart != "" {
		ws, err := calendar.ParseWeekStart(q.WeekStart)
		if err != nil {
			return err
		}
		q.weekStart = ws
	}
	return nil
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
	Mode string `validate:"omitempty,oneof=monthly current"`

	from, to calendar.Date
	mode     weather.Mode
}

func (q *weatherQuery) bind(c *fiber.Ctx, _ *Handlers) error {
	q.From = c.Query("from")
	q.To = c.Query("to")
	q.Mode = c.Query("mode")
	if err := validate.Struct(q); err != nil {
		return err
	}

	var err error
	if q.from, err = calendar.ParseDate(q.From); err != nil {
		return err
	}
	if q.to, err = calendar.ParseDate(q.To); err != nil {
		return err
	}
	if q.to.Before(q.from) {
		return errors.New("to must not be before from")
	}
	if q.from.DaysUntil(q.to) >= maxWeatherSpan {
		return errors.New("date range too long; at most " + strconv.Itoa(maxWeatherSpan) + " days")
	}

	q.mode = weather.ModeMonthly
	if q.Mode == "current" {
		q.mode = weather.ModeCurrent
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
