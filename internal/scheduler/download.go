package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

// Downloader fetches new audio into the downloads directory.
type Downloader interface {
	Download(ctx context.Context) error
}

// ScriptDownloader runs the configured download script. A non-zero exit is
// an error.
type ScriptDownloader struct {
	config interface{ GetConfig() *config.Config }
	runner transcriber.Runner
	log    *log.Logger
}

func NewScriptDownloader(cfg interface{ GetConfig() *config.Config }, runner transcriber.Runner, logger *log.Logger) *ScriptDownloader {
	if runner == nil {
		runner = transcriber.ExecRunner{}
	}
	return &ScriptDownloader{config: cfg, runner: runner, log: logger.WithPrefix("download")}
}

func (d *ScriptDownloader) Download(ctx context.Context) error {
	prog, args := d.config.GetConfig().DownloadCommand()
	if prog == "" {
		d.log.Info("no download script configured")
		return nil
	}

	start := time.Now()
	res, err := d.runner.Run(ctx, prog, args...)
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line != "" {
			d.log.Debug(line)
		}
	}
	if err != nil {
		return err
	}
	d.log.Info("download script finished", "script", prog, "took", time.Since(start))
	return nil
}
