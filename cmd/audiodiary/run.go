package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/daemon"
	"github.com/leonardotrapani/audiodiary/internal/logging"
	"github.com/leonardotrapani/audiodiary/internal/notify"
	"github.com/leonardotrapani/audiodiary/internal/organizer"
	"github.com/leonardotrapani/audiodiary/internal/scheduler"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

func runCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler (download, transcribe, organize)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

// pipeline holds everything a scheduler run needs.
type pipeline struct {
	manager *config.Manager
	sched   *scheduler.Scheduler
	logger  *log.Logger
	closer  io.Closer
}

func buildPipeline() (*pipeline, error) {
	p, store, cfg, settings, err := loadDocuments()
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		File:  cfg.LogPath(),
		Level: cfg.Scheduler.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	manager, err := config.NewManager(store, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	// the organizer always talks to OpenAI, whatever the transcription model
	key, err := settings.RequireAPIKey(p.env)
	if err != nil {
		closer.Close()
		return nil, err
	}

	tcfg, err := settings.ToTranscriberConfig(cfg, key)
	if err != nil {
		closer.Close()
		return nil, err
	}

	sched := scheduler.New(scheduler.Options{
		Config:      manager,
		Downloader:  scheduler.NewScriptDownloader(manager, nil, logger),
		Transcriber: transcriber.NewDispatcher(tcfg, nil, nil, logger),
		Organizer:   organizer.New(settings.ToOrganizerConfig(key), nil, logger),
		Notifier:    notify.New(settings.Notifications.Enabled, logger),
		Logger:      logger,
	})

	logger.Info("pipeline ready",
		"config", store.Path(),
		"model", settings.ModelType,
		"organizer", settings.Organizer.Model,
		"runsPerDay", cfg.Scheduler.RunsPerDay,
	)
	return &pipeline{manager: manager, sched: sched, logger: logger, closer: closer}, nil
}

func runScheduler(once bool) error {
	pl, err := buildPipeline()
	if err != nil {
		return err
	}
	defer pl.closer.Close()

	if once {
		ctx, cancel := signalContext()
		defer cancel()
		report := pl.sched.RunCycle(ctx)
		if !report.OK() {
			return fmt.Errorf("%s", report.Summary())
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := pl.manager.StartWatching(ctx); err != nil {
		pl.logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer pl.manager.Stop()
	}

	return daemon.New(pl.sched, pl.logger).Run()
}
