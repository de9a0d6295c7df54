// Package status gathers what the scheduler, the models and the on-disk
// artifacts look like right now, for the status command.
package status

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/bus"
	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/deps"
	"github.com/leonardotrapani/audiodiary/internal/language"
	"github.com/leonardotrapani/audiodiary/internal/logging"
	"github.com/leonardotrapani/audiodiary/internal/organizer"
	"github.com/leonardotrapani/audiodiary/internal/scheduler"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

// TypicalEntryTokens is the prompt plus completion size used for the
// per-entry cost estimate.
const TypicalEntryTokens = 1000

type Options struct {
	Config        *config.Config
	Settings      *config.Settings
	Env           config.Env
	FS            afero.Fs
	Files         bool
	CostEstimates bool

	// defaults: bus.ReadPid, deps.CheckAll and time.Now
	ReadPid func() (int, bool)
	Tools   func(ctx context.Context) []deps.Result
	Now     func() time.Time
}

type Report struct {
	GeneratedAt time.Time
	Scheduler   SchedulerInfo
	Model       ModelInfo
	Organizer   config.OrganizerSettings
	APIKey      KeyInfo
	Tools       []deps.Result
	Files       *FileStats
	Costs       []CostRow
}

type SchedulerInfo struct {
	RunsPerDay  int
	Interval    time.Duration
	Once        bool
	Running     bool
	PID         int
	LastStart   time.Time
	NextRun     time.Time
	LogFile     string
	CurrentDate string
}

type ModelInfo struct {
	Type     string
	Endpoint string
	Params   [][2]string
}

type KeyInfo struct {
	Source config.KeySource
	Masked string
}

type FileStats struct {
	Downloads     int
	Processed     int
	Audits        int
	AuditsByModel map[string]int
	DiaryFiles    int
	DiaryBytes    int64
	Todos         int
	InboxBytes    int64
}

type CostRow struct {
	Model   string
	Input   float64
	Output  float64
	Typical float64
}

func Collect(ctx context.Context, opts Options) (*Report, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.ReadPid == nil {
		opts.ReadPid = bus.ReadPid
	}
	if opts.Tools == nil {
		opts.Tools = func(context.Context) []deps.Result { return deps.CheckAll() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg, s := opts.Config, opts.Settings

	r := &Report{GeneratedAt: opts.Now(), Organizer: s.Organizer}

	sched, err := collectScheduler(opts)
	if err != nil {
		return nil, err
	}
	r.Scheduler = sched

	model, err := s.ToModel()
	if err != nil {
		return nil, err
	}
	r.Model = ModelInfo{Type: s.ModelType, Endpoint: transcriber.Endpoint(model), Params: modelParams(s)}

	key, source := s.ResolveAPIKey(opts.Env)
	r.APIKey = KeyInfo{Source: source}
	if key != "" {
		r.APIKey.Masked = config.MaskKey(key)
	}

	r.Tools = opts.Tools(ctx)

	if opts.Files {
		fstats, err := collectFiles(opts.FS, cfg)
		if err != nil {
			return nil, err
		}
		r.Files = fstats
	}
	if opts.CostEstimates {
		r.Costs = costTable()
	}
	return r, nil
}

func collectScheduler(opts Options) (SchedulerInfo, error) {
	cfg := opts.Config
	info := SchedulerInfo{
		RunsPerDay:  cfg.Scheduler.RunsPerDay,
		LogFile:     cfg.LogPath(),
		CurrentDate: cfg.DiaryManager.CurrentDate,
	}

	interval, once, err := scheduler.ComputeInterval(cfg.Scheduler.RunsPerDay)
	if err != nil {
		return info, err
	}
	info.Interval, info.Once = interval, once
	info.PID, info.Running = opts.ReadPid()

	last, ok, err := LastCycleStart(opts.FS, cfg.LogPath())
	if err != nil {
		return info, err
	}
	if ok {
		info.LastStart = last
		if !once {
			info.NextRun = last.Add(interval)
		}
	}
	return info, nil
}

// LastCycleStart finds the timestamp of the last cycle-start line in the
// scheduler log. ok is false when the log is missing or has none.
func LastCycleStart(fs afero.Fs, logPath string) (time.Time, bool, error) {
	f, err := fs.Open(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	defer f.Close()

	var last time.Time
	found := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, scheduler.CycleStartMessage) || len(line) < len(logging.TimeFormat) {
			continue
		}
		t, err := time.ParseInLocation(logging.TimeFormat, line[:len(logging.TimeFormat)], time.Local)
		if err != nil {
			continue
		}
		last, found = t, true
	}
	if err := sc.Err(); err != nil {
		return time.Time{}, false, fmt.Errorf("read log %s: %w", logPath, err)
	}
	return last, found, nil
}

func modelParams(s *config.Settings) [][2]string {
	var p [][2]string
	switch s.ModelType {
	case config.ModelTypeLocal:
		p = append(p, [2]string{"model path", s.Local.ModelPath}, [2]string{"language", orAuto(s.Local.Language)})
		if s.Local.Threads > 0 {
			p = append(p, [2]string{"threads", fmt.Sprint(s.Local.Threads)})
		}
		if s.VADFilter {
			p = append(p, [2]string{"vad model", s.Local.VADModelPath})
		}
	case config.ModelTypeWhisper:
		p = append(p,
			[2]string{"model", s.Whisper.Model},
			[2]string{"language", orAuto(s.Whisper.Language)},
			[2]string{"response format", s.Whisper.ResponseFormat},
			[2]string{"temperature", fmt.Sprint(s.Whisper.Temperature)},
		)
	case config.ModelTypeChatAudio:
		p = append(p, [2]string{"model", s.ChatAudio.Model}, [2]string{"language", orAuto(s.ChatAudio.Language)})
	}
	chunk := "off"
	if s.ChunkAudio {
		chunk = (time.Duration(s.MaxChunkSizeMilliseconds) * time.Millisecond).String()
	}
	return append(p, [2]string{"chunking", chunk})
}

func orAuto(lang string) string {
	return language.Label(lang)
}

func collectFiles(fs afero.Fs, cfg *config.Config) (*FileStats, error) {
	st := &FileStats{AuditsByModel: map[string]int{}}

	downloads, err := transcriber.ListAudioFiles(fs, cfg.DownloadsPath())
	if err != nil {
		return nil, err
	}
	processed, err := transcriber.ListAudioFiles(fs, cfg.ProcessedPath())
	if err != nil {
		return nil, err
	}
	st.Downloads, st.Processed = len(downloads), len(processed)

	audits, err := afero.Glob(fs, filepath.Join(cfg.AuditPath(), "*.txt"))
	if err != nil {
		return nil, err
	}
	st.Audits = len(audits)
	for _, a := range audits {
		st.AuditsByModel[auditModel(fs, a)]++
	}

	pattern := filepath.Join(cfg.DiaryDir(), strings.ReplaceAll(cfg.DiaryManager.EntriesFileFormat, "{date}", "*"))
	diaries, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, err
	}
	st.DiaryFiles = len(diaries)
	for _, d := range diaries {
		if fi, err := fs.Stat(d); err == nil {
			st.DiaryBytes += fi.Size()
		}
	}

	if data, err := afero.ReadFile(fs, cfg.TodoPath()); err == nil {
		st.Todos = countTodos(string(data))
	}
	if fi, err := fs.Stat(cfg.OutputPath()); err == nil {
		st.InboxBytes = fi.Size()
	}
	return st, nil
}

// auditModel reads the "# Model:" header of an audit transcript.
func auditModel(fs afero.Fs, path string) string {
	f, err := fs.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; i < 10 && sc.Scan(); i++ {
		if m, ok := strings.CutPrefix(sc.Text(), "# Model:"); ok {
			return strings.TrimSpace(m)
		}
	}
	return "unknown"
}

func countTodos(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "- ") {
			n++
		}
	}
	return n
}

func costTable() []CostRow {
	half := organizer.Usage{PromptTokens: TypicalEntryTokens / 2, CompletionTokens: TypicalEntryTokens / 2}
	var rows []CostRow
	for _, name := range organizer.PricedModels() {
		p, _ := organizer.PriceFor(name)
		rows = append(rows, CostRow{
			Model:   name,
			Input:   p.Input,
			Output:  p.Output,
			Typical: organizer.EstimateCost(name, half),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Typical < rows[j].Typical })
	return rows
}
