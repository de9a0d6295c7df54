package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/afero"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config is fixed for the lifetime of a Dispatcher.
type Config struct {
	Model      Model
	APIKey     string
	BaseURL    string // empty = OpenAI
	ChunkAudio bool
	MaxChunk   time.Duration
	AuditDir   string // empty disables audit copies
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// Dispatcher turns audio files into text with the configured model.
type Dispatcher struct {
	cfg      Config
	fs       afero.Fs
	runner   Runner
	media    *Media
	audio    AudioClient
	http     *http.Client
	audit    *auditWriter
	lookPath func(string) (string, error)
	log      *log.Logger
}

func NewDispatcher(cfg Config, fs afero.Fs, runner Runner, logger *log.Logger) *Dispatcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	logger = logger.WithPrefix("transcriber")

	d := &Dispatcher{
		cfg:      cfg,
		fs:       fs,
		runner:   runner,
		media:    NewMedia(fs, runner, logger),
		http:     &http.Client{Timeout: 10 * time.Minute},
		audit:    newAuditWriter(fs, cfg.AuditDir),
		lookPath: exec.LookPath,
		log:      logger,
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		oc.BaseURL = cfg.baseURL()
		d.audio = openai.NewClientWithConfig(oc)
	}
	return d
}

func (d *Dispatcher) Model() Model {
	return d.cfg.Model
}

func (d *Dispatcher) Media() *Media {
	return d.media
}

// TranscribeOne sends one audio unit to model. Errors are returned to the
// caller, which decides whether to skip the unit; nothing is retried here.
func (d *Dispatcher) TranscribeOne(ctx context.Context, path string, model Model) (string, error) {
	switch m := model.(type) {
	case LocalModel:
		return d.transcribeLocal(ctx, path, m)
	case WhisperModel:
		return d.transcribeWhisper(ctx, path, m)
	case ChatAudioModel:
		return d.transcribeChatAudio(ctx, path, m)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownModel, model)
	}
}

// TranscribeFile chunks path when configured, transcribes every unit in
// order and joins the non-empty results with newlines. Each unit transcript
// is also written to the audit directory.
func (d *Dispatcher) TranscribeFile(ctx context.Context, path string) (string, error) {
	if d.cfg.Model == nil {
		return "", ErrUnknownModel
	}
	modelType := d.cfg.Model.Type()
	start := time.Now()

	units := []string{path}
	if d.cfg.ChunkAudio {
		chunks, cleanup, err := d.media.ChunkIfNeeded(ctx, path, d.cfg.MaxChunk)
		defer cleanup()
		switch {
		case err != nil:
			d.log.Warn("chunking failed, sending whole file", "path", path, "err", err)
		case len(chunks) == 0:
			d.log.Warn("no chunks materialized, sending whole file", "path", path)
		default:
			units = chunks
		}
	}

	var parts []string
	var lastErr error
	for i, unit := range units {
		text, err := d.TranscribeOne(ctx, unit, d.cfg.Model)
		if unit != path {
			_ = d.fs.Remove(unit)
		}
		if err != nil {
			d.log.Error("unit transcription failed", "path", path, "unit", i, "err", err)
			lastErr = err
			if IsFatalTranscriptionError(err) || ctx.Err() != nil {
				break
			}
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if _, err := d.audit.Write(unit, path, modelType, text); err != nil {
			d.log.Warn("failed to write audit transcript", "path", path, "err", err)
		}
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		if lastErr != nil {
			return "", errors.Join(ErrNoTranscript, lastErr)
		}
		return "", ErrNoTranscript
	}

	d.log.Info("file transcribed", "path", path, "model", modelType, "units", len(units), "took", time.Since(start))
	return strings.Join(parts, "\n"), nil
}
