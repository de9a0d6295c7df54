package status

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/deps"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DownloadsDirectory = "/data/downloads"
	cfg.OutputFile = "/data/transcription.txt"
	cfg.ProcessedDirectory = "/data/processed"
	cfg.ReceivedTranscriptionsDirectory = "/data/received"
	cfg.Scheduler.LogFile = "/data/scheduler.log"
	cfg.Scheduler.RunsPerDay = 4
	cfg.DiaryManager.Directory = "/data"
	cfg.DiaryManager.CurrentDate = "261019"
	return cfg
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testOptions(fs afero.Fs) Options {
	return Options{
		Config:   testConfig(),
		Settings: config.DefaultSettings(),
		Env:      config.Env{OpenAIAPIKey: "sk-proj-abcdefghijkl"},
		FS:       fs,
		ReadPid:  func() (int, bool) { return 4242, true },
		Tools: func(context.Context) []deps.Result {
			return []deps.Result{
				{Tool: deps.FFmpeg, Status: deps.Status{Installed: true, Path: "/usr/bin/ffmpeg", Version: "ffmpeg version 7.1"}},
				{Tool: deps.WhisperCli, Status: deps.Status{}},
			}
		},
		Now: func() time.Time { return testNow },
	}
}

func TestLastCycleStart(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/log", strings.Join([]string{
		"2026-10-19 06:00:00 INFO scheduler: starting pipeline cycle cycle=aaa",
		"2026-10-19 06:00:03 INFO scheduler: step finished step=download",
		"garbage starting pipeline cycle",
		"2026-10-19 11:30:00 INFO scheduler: starting pipeline cycle cycle=bbb",
		"2026-10-19 11:30:09 INFO scheduler: pipeline cycle finished ok=true",
	}, "\n"))

	got, ok, err := LastCycleStart(fs, "/log")
	if err != nil || !ok {
		t.Fatalf("LastCycleStart() = %v, %v, %v", got, ok, err)
	}
	if want := time.Date(2026, 10, 19, 11, 30, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("LastCycleStart() = %v, want %v", got, want)
	}

	if _, ok, err := LastCycleStart(fs, "/missing"); ok || err != nil {
		t.Errorf("missing log = %v, %v", ok, err)
	}
}

func TestCollect(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/data/scheduler.log", "2026-10-19 09:00:00 INFO scheduler: starting pipeline cycle cycle=abc\n")

	r, err := Collect(context.Background(), testOptions(fs))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	s := r.Scheduler
	if !s.Running || s.PID != 4242 || s.Interval != 6*time.Hour || s.Once {
		t.Errorf("scheduler = %+v", s)
	}
	if want := time.Date(2026, 10, 19, 15, 0, 0, 0, time.Local); !s.NextRun.Equal(want) {
		t.Errorf("NextRun = %v, want %v", s.NextRun, want)
	}
	if r.Model.Endpoint != "/v1/audio/transcriptions" {
		t.Errorf("Endpoint = %q", r.Model.Endpoint)
	}
	if r.APIKey.Source != config.KeySourceEnv || r.APIKey.Masked != "sk-p...ijkl" {
		t.Errorf("APIKey = %+v", r.APIKey)
	}
	if r.Files != nil || r.Costs != nil {
		t.Error("files and costs should only be collected on request")
	}
}

func TestCollectFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/data/downloads/a.mp3", "x")
	write(t, fs, "/data/downloads/notes.txt", "x")
	write(t, fs, "/data/processed/b.m4a", "x")
	write(t, fs, "/data/processed/c.wav", "x")
	write(t, fs, "/data/received/b_whisper-1_20261019_090000.txt", "# Transcription of b.m4a\n# Model: whisper-1\n\nhi")
	write(t, fs, "/data/received/c_local_20261019_090000.txt", "# Transcription of c.wav\n# Model: local\n\nhi")
	write(t, fs, "/data/received/d_local_20261019_090000.txt", "# Transcription of d.wav\n# Model: local\n\nhi")
	write(t, fs, "/data/261018_ongoing_entries.txt", "12345")
	write(t, fs, "/data/261019_ongoing_entries.txt", "1234567890")
	write(t, fs, "/data/to_do.txt", "\n--- Added on 2026-10-19 09:00 ---\n- buy milk\n- call mom\n")
	write(t, fs, "/data/transcription.txt", "pending")

	opts := testOptions(fs)
	opts.Files = true
	opts.CostEstimates = true
	r, err := Collect(context.Background(), opts)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	f := r.Files
	if f.Downloads != 1 || f.Processed != 2 || f.Audits != 3 {
		t.Errorf("counts = %+v", f)
	}
	if f.AuditsByModel["local"] != 2 || f.AuditsByModel["whisper-1"] != 1 {
		t.Errorf("AuditsByModel = %v", f.AuditsByModel)
	}
	if f.DiaryFiles != 2 || f.DiaryBytes != 15 {
		t.Errorf("diary = %d files, %d bytes", f.DiaryFiles, f.DiaryBytes)
	}
	if f.Todos != 2 || f.InboxBytes != 7 {
		t.Errorf("todos = %d, inbox = %d", f.Todos, f.InboxBytes)
	}

	if len(r.Costs) != 3 || r.Costs[0].Model != "gpt-3.5-turbo" {
		t.Fatalf("Costs = %+v", r.Costs)
	}
	if got := r.Costs[0].Typical; got < 0.0014 || got > 0.0016 {
		t.Errorf("typical gpt-3.5-turbo cost = %v, want 0.0015", got)
	}
}

func TestRender(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/data/scheduler.log", "2026-10-19 09:00:00 INFO scheduler: starting pipeline cycle cycle=abc\n")
	opts := testOptions(fs)
	opts.Files = true
	opts.CostEstimates = true
	r, err := Collect(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Render(&buf, r, false)
	out := buf.String()

	for _, want := range []string{
		"running (pid 4242)",
		"4 runs per day, every 6h0m0s",
		"3 hours ago",
		"3 hours from now",
		"/v1/audio/transcriptions",
		"sk-p...ijkl from environment (OPENAI_API_KEY)",
		"ffmpeg version 7.1",
		"not found (local transcription)",
		"gpt-3.5-turbo",
		"(current)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output contains escape codes with colour disabled")
	}
}
