// Package scheduler runs the download, transcribe and organize cycle on a
// fixed cadence derived from runsPerDay.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/diary"
	"github.com/leonardotrapani/audiodiary/internal/organizer"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

type State string

const (
	Idle     State = "idle"
	Running  State = "running"
	Sleeping State = "sleeping"
	Stopped  State = "stopped"
)

// CycleStartMessage is logged at the start of every cycle. The status
// reporter looks for it in the log file.
const CycleStartMessage = "starting pipeline cycle"

const processedStampLayout = "20060102150405"

// ConfigSource is satisfied by *config.Manager.
type ConfigSource interface {
	GetConfig() *config.Config
	SetCurrentDate(date string) error
	Changes() <-chan struct{}
}

type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

type Organizer interface {
	Process(ctx context.Context, transcript, priorEntries string) (*organizer.Result, error)
}

// Notifier is told about finished cycles. notify.Desktop and notify.Nop
// satisfy it.
type Notifier interface {
	CycleFinished(ok bool, summary string)
	Error(msg string)
}

type Options struct {
	Config      ConfigSource
	FS          afero.Fs
	Downloader  Downloader
	Transcriber Transcriber
	Organizer   Organizer
	Notifier    Notifier
	Logger      *log.Logger
	Now         func() time.Time
}

// Status is a snapshot of the scheduler.
type Status struct {
	State     State
	LastStart time.Time
	NextRun   time.Time
	Cycles    int
	Interval  time.Duration
	LastCycle string
}

type Scheduler struct {
	cfg         ConfigSource
	fs          afero.Fs
	downloader  Downloader
	transcriber Transcriber
	organizer   Organizer
	notifier    Notifier
	now         func() time.Time
	log         *log.Logger

	runNow chan struct{}

	mu     sync.Mutex
	status Status
}

func New(opts Options) *Scheduler {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		cfg:         opts.Config,
		fs:          opts.FS,
		downloader:  opts.Downloader,
		transcriber: opts.Transcriber,
		organizer:   opts.Organizer,
		notifier:    opts.Notifier,
		now:         opts.Now,
		log:         opts.Logger.WithPrefix("scheduler"),
		runNow:      make(chan struct{}, 1),
		status:      Status{State: Idle},
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) update(fn func(st *Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}

// RunNow cuts the current sleep short. It returns false when a trigger is
// already pending.
func (s *Scheduler) RunNow() bool {
	select {
	case s.runNow <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes cycles until ctx is cancelled or runsPerDay drops to 0. With
// runsPerDay 0 at start it runs exactly one cycle. Cancellation is not an
// error.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.update(func(st *Status) {
		st.State = Stopped
		st.NextRun = time.Time{}
	})

	interval, once, err := ComputeInterval(s.cfg.GetConfig().Scheduler.RunsPerDay)
	if err != nil {
		return err
	}
	if once {
		s.log.Info("running a single cycle")
		s.RunCycle(ctx)
		return nil
	}

	s.log.Info("scheduler started", "interval", interval)
	for {
		start := s.now()
		s.RunCycle(ctx)
		if ctx.Err() != nil {
			s.log.Info("scheduler stopped")
			return nil
		}

		next := start.Add(interval)
	wait:
		for {
			s.update(func(st *Status) {
				st.State = Sleeping
				st.NextRun = next
				st.Interval = interval
			})
			delay := next.Sub(s.now())
			if delay < 0 {
				delay = 0
			}
			s.log.Info("next cycle scheduled", "at", next.Format(time.DateTime), "in", delay.Round(time.Second))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.log.Info("scheduler stopped")
				return nil
			case <-timer.C:
				break wait
			case <-s.runNow:
				timer.Stop()
				s.log.Info("run requested")
				break wait
			case <-s.cfg.Changes():
				timer.Stop()
				iv, once, err := ComputeInterval(s.cfg.GetConfig().Scheduler.RunsPerDay)
				if err != nil {
					s.log.Error("ignoring config change", "err", err)
					continue
				}
				if once {
					s.log.Info("runsPerDay set to 0, stopping scheduler")
					return nil
				}
				if iv != interval {
					s.log.Info("interval changed", "from", interval, "to", iv)
					interval = iv
					next = start.Add(interval)
				}
			}
		}
	}
}

// RunCycle runs the three steps in order. A failing step is logged and
// recorded in the report; the following steps still run.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	id := uuid.NewString()
	clog := s.log.With("cycle", id)
	started := s.now()
	clog.Info(CycleStartMessage)

	s.update(func(st *Status) {
		st.State = Running
		st.LastStart = started
		st.LastCycle = id
		st.NextRun = time.Time{}
	})

	report := CycleReport{ID: id, Started: started}
	rolled, err := s.CheckAndRolloverDiaryDate(started)
	if err != nil {
		clog.Error("diary date rollover failed", "err", err)
	}
	report.Rolled = rolled

	steps := []struct {
		name string
		fn   func(ctx context.Context, cfg *config.Config, l *log.Logger) error
	}{
		{StepDownload, s.download},
		{StepTranscribe, s.transcribe},
		{StepOrganize, s.organize},
	}
	for _, step := range steps {
		t0 := time.Now()
		err := step.fn(ctx, s.cfg.GetConfig(), clog)
		res := StepResult{Name: step.name, Err: err, Duration: time.Since(t0)}
		if err != nil {
			clog.Error("step failed", "step", step.name, "took", res.Duration, "err", err)
		} else {
			clog.Info("step finished", "step", step.name, "took", res.Duration)
		}
		report.Steps = append(report.Steps, res)
	}

	report.Duration = s.now().Sub(started)
	clog.Info("pipeline cycle finished", "ok", report.OK(), "took", report.Duration)

	s.update(func(st *Status) {
		st.Cycles++
		st.State = Idle
	})
	if s.notifier != nil {
		s.notifier.CycleFinished(report.OK(), report.Summary())
	}
	return report
}

// CheckAndRolloverDiaryDate starts a new diary file and persists today's
// date when the configured date is stale. Calling it again the same day is
// a no-op.
func (s *Scheduler) CheckAndRolloverDiaryDate(today time.Time) (bool, error) {
	cfg := s.cfg.GetConfig()
	if !cfg.DiaryManager.AutoUpdateDate {
		return false, nil
	}
	date := today.Format(diary.DateLayout)
	if cfg.DiaryManager.CurrentDate == date {
		return false, nil
	}

	if _, err := s.diaryStore(cfg).StartDay(today); err != nil {
		return false, err
	}
	if err := s.cfg.SetCurrentDate(date); err != nil {
		return false, fmt.Errorf("persist current date: %w", err)
	}
	s.log.Info("diary date rolled over", "from", cfg.DiaryManager.CurrentDate, "to", date)
	return true, nil
}

// diaryDay picks the diary file from the configured date, keeping now's time
// of day for the entry heading. An empty or invalid date falls back to now.
func diaryDay(cfg *config.Config, now time.Time) time.Time {
	d, err := time.ParseInLocation(diary.DateLayout, cfg.DiaryManager.CurrentDate, now.Location())
	if err != nil {
		return now
	}
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}

func (s *Scheduler) diaryStore(cfg *config.Config) *diary.Store {
	return diary.NewStore(s.fs, diary.Options{
		Dir:           cfg.DiaryDir(),
		EntriesFormat: cfg.DiaryManager.EntriesFileFormat,
		LegacyFile:    cfg.DiaryManager.LegacyFile,
		TodoFile:      cfg.DiaryManager.TodoFile,
	})
}

func (s *Scheduler) download(ctx context.Context, _ *config.Config, _ *log.Logger) error {
	if s.downloader == nil {
		return nil
	}
	return s.downloader.Download(ctx)
}

func (s *Scheduler) transcribe(ctx context.Context, cfg *config.Config, l *log.Logger) error {
	files, err := transcriber.ListAudioFiles(s.fs, cfg.DownloadsPath())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		l.Info("no audio files to transcribe", "dir", cfg.DownloadsPath())
		return nil
	}

	inbox := diary.NewInbox(s.fs, cfg.OutputPath())
	var failed int
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		text, err := s.transcriber.TranscribeFile(ctx, f)
		if err != nil {
			l.Error("transcription failed, file kept for next cycle", "file", filepath.Base(f), "err", err)
			failed++
			continue
		}
		if strings.TrimSpace(text) != "" {
			if err := inbox.Append(s.now(), []string{text}); err != nil {
				l.Error("could not store transcript", "file", filepath.Base(f), "err", err)
				failed++
				continue
			}
		}
		dst, err := s.moveProcessed(cfg, f)
		if err != nil {
			l.Error("could not move processed file", "file", filepath.Base(f), "err", err)
			failed++
			continue
		}
		l.Info("transcribed file", "file", filepath.Base(f), "moved_to", dst, "chars", len(text), "took", time.Since(start))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d audio files failed", failed, len(files))
	}
	return nil
}

// moveProcessed moves src into the processed directory, adding a timestamp
// suffix when the name is taken.
func (s *Scheduler) moveProcessed(cfg *config.Config, src string) (string, error) {
	dir := cfg.ProcessedPath()
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(src)
	dst := filepath.Join(dir, name)
	exists, err := afero.Exists(s.fs, dst)
	if err != nil {
		return "", err
	}
	if exists {
		ext := filepath.Ext(name)
		dst = filepath.Join(dir, strings.TrimSuffix(name, ext)+"_"+s.now().Format(processedStampLayout)+ext)
	}
	if err := s.fs.Rename(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *Scheduler) organize(ctx context.Context, cfg *config.Config, l *log.Logger) error {
	inbox := diary.NewInbox(s.fs, cfg.OutputPath())
	body, err := inbox.Body()
	if err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		l.Info("no pending transcripts to organize")
		return nil
	}
	if s.organizer == nil {
		return errors.New("no organizer configured")
	}

	now := s.now()
	day := diaryDay(cfg, now)
	store := s.diaryStore(cfg)
	prior, err := store.PriorEntries(day)
	if err != nil {
		return fmt.Errorf("read prior entries: %w", err)
	}

	res, err := s.organizer.Process(ctx, body, prior)
	if err != nil {
		return fmt.Errorf("organize transcript, keeping it for next cycle: %w", err)
	}

	p, err := store.AppendEntry(day, res.Entry)
	if err != nil {
		return err
	}
	if err := store.AppendTodos(now, res.Todos); err != nil {
		return err
	}
	if err := inbox.Clear(); err != nil {
		return err
	}
	l.Info("diary updated", "file", p, "todos", len(res.Todos))
	return nil
}
