package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harborops/opsdash/internal/app"
	"github.com/harborops/opsdash/internal/logging"
	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/notify"
	"github.com/harborops/opsdash/internal/schedule"
	"github.com/harborops/opsdash/internal/source"
	"github.com/harborops/opsdash/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "opsdash: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := model.DefaultConfigPath()
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	ctx := context.Background()
	center := notify.NewCenter(ctx, db, log)
	scheduler := schedule.NewScheduler(
		ctx, db, center, source.NewStoreSource(db),
		schedule.SystemClock, log,
		schedule.Config{
			Throttle:            time.Duration(cfg.Scheduler.ThrottleSec) * time.Second,
			ImminentWindow:      time.Duration(cfg.Scheduler.ImminentWindowMin) * time.Minute,
			MaxEmissionsPerTick: cfg.Scheduler.MaxEmissionsPerTick,
			Location:            loc,
		},
	)

	pollInterval := time.Duration(cfg.Scheduler.PollIntervalSec) * time.Second
	program := tea.NewProgram(
		app.New(center, scheduler, log, pollInterval),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
