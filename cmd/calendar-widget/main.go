// Command calendar-widget renders one widget surface and prints it as JSON.
// It never calls a provider: weather comes from the shared cache written by
// calendar-weather, with synthetic filler for anything missing or stale.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/calendar-weather/internal/common"
	"github.com/i474232898/calendar-weather/internal/config"
	"github.com/i474232898/calendar-weather/internal/log"
	"github.com/i474232898/calendar-weather/internal/render"
	"github.com/i474232898/calendar-weather/internal/schedule"
	"github.com/i474232898/calendar-weather/internal/weather"
)

type timelineOutput struct {
	Entries []render.Snapshot `json:"entries"`
	Plan    schedule.Plan     `json:"plan"`
}

func main() {
	kindFlag := flag.String("kind", "month", "widget surface: month or today")
	modeFlag := flag.String("mode", "snapshot", "output: placeholder, snapshot or timeline")
	flag.Parse()

	if err := run(*kindFlag, *modeFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(kindName, mode string) error {
	kind, err := render.ParseKind(kindName)
	if err != nil {
		return err
	}
	if kind == render.App {
		return fmt.Errorf("kind %q is not a widget", kindName)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := log.Init(cfg.LogDebug); err != nil {
		return err
	}
	defer log.Sync()
	logger := log.Named("widget").With("kind", kind.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	caches := common.OpenCaches(ctx, cfg, logger)
	defer caches.Close()

	renderer := render.New(render.Options{
		Kind:      kind,
		WeekStart: cfg.WeekStart,
		Location:  cfg.Location,
		Source:    weather.NewSource(weather.RoleReader, caches.For(kind.Mode()), nil, logger),
		Planner:   schedule.NewPlanner(cfg.Location),
		Budget:    cfg.SnapshotBudget,
		Logger:    logger,
	})

	var out any
	switch mode {
	case "placeholder":
		out = renderer.Placeholder()
	case "snapshot":
		out = renderer.Snapshot(ctx, renderer.Now())
	case "timeline":
		entries, plan := renderer.Timeline(ctx, renderer.Now())
		out = timelineOutput{Entries: entries, Plan: plan}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
