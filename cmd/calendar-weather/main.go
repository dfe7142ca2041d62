package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/calendar-weather/internal/api/http"
	"github.com/i474232898/calendar-weather/internal/common"
	"github.com/i474232898/calendar-weather/internal/config"
	"github.com/i474232898/calendar-weather/internal/log"
	"github.com/i474232898/calendar-weather/internal/render"
	"github.com/i474232898/calendar-weather/internal/schedule"
	"github.com/i474232898/calendar-weather/internal/scheduler"
	"github.com/i474232898/calendar-weather/internal/session"
	"github.com/i474232898/calendar-weather/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Get().Fatalw("failed to load config", "error", err)
	}
	if err := log.Init(cfg.LogDebug); err != nil {
		log.Get().Fatalw("failed to init logger", "error", err)
	}
	defer log.Sync()
	appLog := log.Named("app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// The app is the only process that writes the shared cache.
	caches := common.OpenCaches(ctx, cfg, appLog)
	defer caches.Close()

	resolver, err := common.NewResolver(cfg, httpClient, appLog)
	if err != nil {
		appLog.Fatalw("failed to load default positions", "error", err)
	}

	// One interactive session per launch.
	sess := session.New(cfg.InteractiveBudget)
	pipelines := common.NewPipelines(cfg, caches, sess, resolver, httpClient, appLog)

	planner := schedule.NewPlanner(cfg.Location)
	renderers := make(map[render.Kind]*render.Renderer, 3)
	for _, kind := range []render.Kind{render.App, render.MonthWidget, render.TodayWidget} {
		pipeline := pipelines[kind.Mode()]
		renderers[kind] = render.New(render.Options{
			Kind:      kind,
			WeekStart: cfg.WeekStart,
			Location:  cfg.Location,
			Source:    weather.NewSource(weather.RoleAcquirer, caches.For(kind.Mode()), pipeline, appLog.Named("source")),
			Planner:   planner,
			Budget:    cfg.SnapshotBudget,
			OnUpdate: func(s render.Snapshot) {
				appLog.Infow("snapshot refreshed", "kind", s.Kind.String(), "live", s.Live, "status", s.Status)
			},
			Logger: appLog.Named("render"),
		})
	}

	// Background refreshes run on their own sessions and never touch the interactive budget.
	refresh := scheduler.WeatherRefresh([]scheduler.Target{
		{Pipeline: pipelines[weather.ModeMonthly], Range: scheduler.MonthRange(cfg.WeekStart, cfg.Location), Policy: common.BackgroundPolicy(cfg)},
		{Pipeline: pipelines[weather.ModeCurrent], Range: scheduler.TodayRange(cfg.Location), Policy: common.BackgroundPolicy(cfg)},
	}, cfg.BackgroundBudget, nil)

	sched := scheduler.New(scheduler.Options{
		Planner:     planner,
		Refresh:     refresh,
		WeatherCron: cfg.WeatherRefreshCron,
		Budget:      cfg.SnapshotBudget,
		Location:    cfg.Location,
		Logger:      appLog.Named("scheduler"),
	})
	if err := sched.Start(); err != nil {
		appLog.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "calendar-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.SnapshotBudget + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, &httpapi.Handlers{
		WeekStart: cfg.WeekStart,
		Location:  cfg.Location,
		Planner:   planner,
		Renderers: renderers,
		Pipelines: pipelines,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Errorw("fiber server stopped", "error", err)
		}
	}()
	appLog.Infow("calendar-weather started", "port", cfg.Port, "timezone", cfg.Location.String(), "store", cfg.SharedStorePath)

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Errorw("error during shutdown", "error", err)
	}
}
