package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"photark/internal/api"
	"photark/internal/config"
	"photark/internal/db"
	"photark/internal/exclude"
	"photark/internal/logging"
	"photark/internal/metadata"
	"photark/internal/scan"
	"photark/internal/scheduler"
	"photark/internal/store"
)

// Injected at build time via -ldflags; defaults to "dev".
var version = "dev"

func main() {
	os.Exit(run())
}

// run owns the process lifecycle and returns the exit code. Keeping the
// os.Exit call out of here lets the deferred database close (and its WAL
// checkpoint) run even when a scan is interrupted.
func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	group := flag.String("group", "", "only scan targets from this group")
	noRecursive := flag.Bool("no-recursive", false, "disable recursive scanning for this run")
	serve := flag.Bool("serve", false, "run the HTTP API and scheduler instead of a one-shot scan")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	// Initial logging so config errors are visible; reconfigured below once
	// the config is loaded.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logging.Setup(level, cfg.LogFile)
	slog.Info("photark starting",
		"version", version,
		"log_level", level,
		"db_path", cfg.DBPath)

	database, err := db.OpenAndMigrate(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "error", err)
		return 1
	}
	defer database.Close()

	targets := resolveTargets(cfg, *group, *noRecursive)
	if len(targets) == 0 {
		slog.Error("no scan targets configured", "group", *group)
		return 1
	}

	st := store.New(database)
	matcher := exclude.Default()
	if len(cfg.ExcludeDirs) > 0 {
		matcher = exclude.New(cfg.ExcludeDirs, logging.NewSlog(nil))
	}
	extractor := metadata.New(logging.NewSlog(nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := scan.RunConfig{
		Workers:          cfg.Settings.ExtractWorkers,
		ProgressInterval: cfg.Settings.ProgressInterval,
	}

	if *serve {
		return runServe(ctx, cfg, database, st, extractor, matcher, targets, runCfg)
	}
	return runOnce(ctx, database, st, extractor, matcher, targets, runCfg)
}

// runOnce performs a single scan over all targets under one session.
func runOnce(
	ctx context.Context,
	database *sql.DB,
	st store.Store,
	extractor metadata.Extractor,
	matcher *exclude.Matcher,
	targets []scan.RunTarget,
	runCfg scan.RunConfig,
) int {
	session := scan.NewSession()
	logger := logging.Fanout{
		logging.NewSlog(nil),
		logging.NewDB(database, session.ID, session.Component),
	}
	stats := scan.NewStats(logger, runCfg.ProgressInterval)
	scanner := scan.New(st, logger, extractor, matcher, stats, session, runCfg.Workers)

	total, err := scan.Run(ctx, scanner, targets)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("scan failed", "error", err)
		return 1
	}
	fmt.Printf("Scan complete. Processed %d files.\n", total)
	if err != nil {
		// Interrupted: committed records are consistent, but the run is
		// reported as incomplete.
		return 1
	}
	return 0
}

// runServe runs the scan manager, cron scheduler and HTTP API until the
// process is signalled.
func runServe(
	ctx context.Context,
	cfg *config.Config,
	database *sql.DB,
	st store.Store,
	extractor metadata.Extractor,
	matcher *exclude.Matcher,
	targets []scan.RunTarget,
	runCfg scan.RunConfig,
) int {
	// Scans derive from ctx through the manager, so a SIGTERM cancels an
	// in-flight scan instead of abandoning it.
	mgr := scan.NewManager(ctx, database, st, extractor, matcher, targets, runCfg)

	sched := scheduler.New()
	if cfg.Schedule != "" {
		if err := sched.SetJob(cfg.Schedule, func() {
			slog.Info("scheduled scan triggered")
			if _, err := mgr.Start("schedule"); err != nil {
				slog.Warn("scheduled scan start", "error", err)
			}
		}); err != nil {
			slog.Warn("invalid cron expression", "expr", cfg.Schedule, "error", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := api.New(cfg.HTTPAddr, mgr, sched, version)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		return 1
	}
	slog.Info("photark stopped")
	return 0
}

// resolveTargets flattens the configured targets, applies the optional
// group filter, and resolves each target's effective recursive flag.
func resolveTargets(cfg *config.Config, group string, noRecursive bool) []scan.RunTarget {
	var out []scan.RunTarget
	for _, t := range cfg.Targets() {
		if group != "" && t.Group != group {
			continue
		}
		recursive := cfg.RecursiveFor(t)
		if noRecursive {
			recursive = false
		}
		out = append(out, scan.RunTarget{
			Path:        t.Path,
			Group:       t.Group,
			Description: t.Description,
			Category:    t.Category,
			Recursive:   recursive,
		})
	}
	return out
}
