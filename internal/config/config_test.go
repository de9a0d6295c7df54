package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/logging"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

const sampleJSON = `{
  "downloadsDirectory": "downloads",
  "outputFile": "transcription.txt",
  "processedDirectory": "processed",
  "receivedTranscriptionsDirectory": "received_transcriptions",
  "scheduler": {
    "runsPerDay": 4,
    "logFile": "logs/scheduler.log",
    "logLevel": "debug",
    "scriptPaths": {"download": "download-from-gdrive.py --quiet"}
  },
  "diaryManager": {
    "currentDate": "261018",
    "entriesFileFormat": "{date}_ongoing_entries.txt",
    "legacyFile": "diary_entries.txt"
  }
}`

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestStoreLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/diary/config.json", sampleJSON)

	cfg, err := NewStore(fs, "/diary/config.json").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scheduler.RunsPerDay != 4 {
		t.Errorf("RunsPerDay = %d, want 4", cfg.Scheduler.RunsPerDay)
	}
	if !cfg.DiaryManager.AutoUpdateDate {
		t.Error("AutoUpdateDate should default to true when absent")
	}
	if cfg.DiaryManager.TodoFile != "to_do.txt" {
		t.Errorf("TodoFile = %q, want default to_do.txt", cfg.DiaryManager.TodoFile)
	}
	if got := cfg.DownloadsPath(); got != filepath.Join("/diary", "downloads") {
		t.Errorf("DownloadsPath() = %q", got)
	}
	if got := cfg.LogPath(); got != filepath.Join("/diary", "logs", "scheduler.log") {
		t.Errorf("LogPath() = %q", got)
	}

	prog, args := cfg.DownloadCommand()
	if prog != "python3" {
		t.Errorf("download program = %q, want python3", prog)
	}
	if len(args) != 2 || args[0] != filepath.Join("/diary", "download-from-gdrive.py") || args[1] != "--quiet" {
		t.Errorf("download args = %v", args)
	}
}

func TestStoreLoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/d/config.yaml", `
downloadsDirectory: inbox
outputFile: pending.txt
scheduler:
  runsPerDay: 0
diaryManager:
  autoUpdateDate: false
`)

	cfg, err := NewStore(fs, "/d/config.yaml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DownloadsDirectory != "inbox" || cfg.OutputFile != "pending.txt" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.Scheduler.RunsPerDay != 0 {
		t.Errorf("RunsPerDay = %d, want 0", cfg.Scheduler.RunsPerDay)
	}
	if cfg.DiaryManager.AutoUpdateDate {
		t.Error("AutoUpdateDate should be false")
	}
	if cfg.DiaryManager.EntriesFileFormat != "{date}_ongoing_entries.txt" {
		t.Errorf("EntriesFileFormat = %q", cfg.DiaryManager.EntriesFileFormat)
	}
}

func TestStoreLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		notFound bool
	}{
		{name: "missing file", notFound: true},
		{name: "malformed json", content: `{"scheduler": `},
		{name: "negative runs", content: `{"scheduler": {"runsPerDay": -1}}`},
		{name: "format without placeholder", content: `{"diaryManager": {"entriesFileFormat": "entries.txt"}}`},
		{name: "bad current date", content: `{"diaryManager": {"currentDate": "2026-10-18"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if !tt.notFound {
				writeFile(t, fs, "/c/config.json", tt.content)
			}
			_, err := NewStore(fs, "/c/config.json").Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.notFound != errors.Is(err, ErrConfigNotFound) {
				t.Errorf("errors.Is(ErrConfigNotFound) = %v, want %v (err: %v)", !tt.notFound, tt.notFound, err)
			}
		})
	}
}

func TestStoreSetCurrentDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c/config.json", sampleJSON)
	store := NewStore(fs, "/c/config.json")

	if _, err := store.SetCurrentDate("261019"); err != nil {
		t.Fatalf("SetCurrentDate() error = %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiaryManager.CurrentDate != "261019" {
		t.Errorf("CurrentDate = %q, want 261019", cfg.DiaryManager.CurrentDate)
	}
	if cfg.Scheduler.RunsPerDay != 4 {
		t.Errorf("RunsPerDay changed to %d", cfg.Scheduler.RunsPerDay)
	}
	if exists, _ := afero.Exists(fs, "/c/config.json.tmp"); exists {
		t.Error("temp file left behind")
	}

	for _, bad := range []string{"26101", "261399", "abcdef", ""} {
		if _, err := store.SetCurrentDate(bad); err == nil {
			t.Errorf("SetCurrentDate(%q) should fail", bad)
		}
	}
}

func TestStoreSetRunsPerDay(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/c/config.json")
	created, err := store.Init()
	if err != nil || !created {
		t.Fatalf("Init() = %v, %v", created, err)
	}

	if _, err := store.SetRunsPerDay(-2); err == nil {
		t.Error("SetRunsPerDay(-2) should fail")
	}
	cfg, err := store.SetRunsPerDay(0)
	if err != nil {
		t.Fatalf("SetRunsPerDay(0) error = %v", err)
	}
	if cfg.Scheduler.RunsPerDay != 0 {
		t.Errorf("RunsPerDay = %d, want 0", cfg.Scheduler.RunsPerDay)
	}

	created, err = store.Init()
	if err != nil || created {
		t.Errorf("second Init() = %v, %v; want no-op", created, err)
	}
}

func TestManagerSetCurrentDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c/config.json", sampleJSON)

	m, err := NewManager(NewStore(fs, "/c/config.json"), logging.Discard())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	before := m.GetConfig()
	if err := m.SetCurrentDate("261019"); err != nil {
		t.Fatalf("SetCurrentDate() error = %v", err)
	}
	if before.DiaryManager.CurrentDate != "261018" {
		t.Error("copy returned by GetConfig was mutated")
	}
	if got := m.GetConfig().DiaryManager.CurrentDate; got != "261019" {
		t.Errorf("CurrentDate = %q, want 261019", got)
	}
}

func TestLoadSettings(t *testing.T) {
	fs := afero.NewMemMapFs()

	s, err := LoadSettings(fs, "/c/settings.toml")
	if err != nil {
		t.Fatalf("LoadSettings(missing) error = %v", err)
	}
	if s.ModelType != ModelTypeWhisper || s.Organizer.MaxAttempts != 3 || !s.Organizer.EnableCache {
		t.Errorf("unexpected defaults: %+v", s)
	}

	writeFile(t, fs, "/c/settings.toml", `
modelType = "4o-transcribe"
chunkAudio = true

[chatAudio]
prompt = "diary"

[organizer]
model = "gpt-4o-mini"

[providers.openai]
apiKey = "sk-settings"
`)
	s, err = LoadSettings(fs, "/c/settings.toml")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.ModelType != ModelTypeChatAudio || !s.ChunkAudio {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.MaxChunkSizeMilliseconds != 1440000 {
		t.Errorf("MaxChunkSizeMilliseconds = %d, want default", s.MaxChunkSizeMilliseconds)
	}
	if s.Organizer.Temperature != 0.3 || s.Organizer.Model != "gpt-4o-mini" {
		t.Errorf("organizer = %+v", s.Organizer)
	}

	if err := SaveSettings(fs, "/c/out.toml", s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	again, err := LoadSettings(fs, "/c/out.toml")
	if err != nil {
		t.Fatalf("LoadSettings(saved) error = %v", err)
	}
	if again.ChatAudio.Prompt != "diary" {
		t.Errorf("saved prompt = %q", again.ChatAudio.Prompt)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{name: "defaults", mutate: func(s *Settings) {}},
		{name: "unknown model", mutate: func(s *Settings) { s.ModelType = "whisper-2" }, wantErr: "modelType"},
		{name: "bad response format", mutate: func(s *Settings) { s.Whisper.ResponseFormat = "xml" }, wantErr: "responseFormat"},
		{name: "bad language", mutate: func(s *Settings) { s.Whisper.Language = "English" }, wantErr: "language"},
		{name: "local without model", mutate: func(s *Settings) {
			s.ModelType = ModelTypeLocal
			s.Local.ModelPath = ""
		}, wantErr: "modelPath"},
		{name: "chunking without size", mutate: func(s *Settings) {
			s.ChunkAudio = true
			s.MaxChunkSizeMilliseconds = 0
		}, wantErr: "maxChunkSizeMilliseconds"},
		{name: "zero attempts", mutate: func(s *Settings) { s.Organizer.MaxAttempts = 0 }, wantErr: "maxAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestToModel(t *testing.T) {
	tests := []struct {
		modelType string
		wantType  string
	}{
		{ModelTypeLocal, "local"},
		{ModelTypeWhisper, "whisper-1"},
		{ModelTypeChatAudio, "4o-transcribe"},
	}

	for _, tt := range tests {
		t.Run(tt.modelType, func(t *testing.T) {
			s := DefaultSettings()
			s.ModelType = tt.modelType
			m, err := s.ToModel()
			if err != nil {
				t.Fatalf("ToModel() error = %v", err)
			}
			if m.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", m.Type(), tt.wantType)
			}
		})
	}

	s := DefaultSettings()
	s.Whisper.Prompt = "names: Anya"
	m, _ := s.ToModel()
	w, ok := m.(transcriber.WhisperModel)
	if !ok || w.Prompt != "names: Anya" {
		t.Errorf("ToModel() = %#v", m)
	}
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		settings   string
		env        string
		wantKey    string
		wantSource KeySource
	}{
		{name: "settings wins", settings: "sk-file", env: "sk-env", wantKey: "sk-file", wantSource: KeySourceSettings},
		{name: "env fallback", env: "sk-env", wantKey: "sk-env", wantSource: KeySourceEnv},
		{name: "missing", wantSource: KeySourceMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			if tt.settings != "" {
				s.Providers["openai"] = ProviderConfig{APIKey: tt.settings}
			}
			key, source := s.ResolveAPIKey(Env{OpenAIAPIKey: tt.env})
			if key != tt.wantKey || source != tt.wantSource {
				t.Errorf("ResolveAPIKey() = %q, %q; want %q, %q", key, source, tt.wantKey, tt.wantSource)
			}
		})
	}

	if _, err := DefaultSettings().RequireAPIKey(Env{}); err == nil {
		t.Error("RequireAPIKey() should fail without a key")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := afero.WriteFile(afero.NewOsFs(), dotenv, []byte("AUDIODIARY_SMTP_PASSWORD=hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AUDIODIARY_CONFIG", "/tmp/from-env.json")
	t.Setenv("AUDIODIARY_SMTP_PASSWORD", "")
	os.Unsetenv("AUDIODIARY_SMTP_PASSWORD")

	e, err := LoadEnv(dotenv, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if e.ConfigPath != "/tmp/from-env.json" {
		t.Errorf("ConfigPath = %q", e.ConfigPath)
	}
	if e.SMTPPassword != "hunter2" {
		t.Errorf("SMTPPassword = %q, want value from .env", e.SMTPPassword)
	}
	if e.DashboardAddr != "127.0.0.1:8080" {
		t.Errorf("DashboardAddr = %q, want default", e.DashboardAddr)
	}

	path, err := e.GetConfigPath("/flag/config.json")
	if err != nil || path != "/flag/config.json" {
		t.Errorf("GetConfigPath(flag) = %q, %v", path, err)
	}
	if got := (Env{}).GetSettingsPath("/a/config.json"); got != filepath.Join("/a", "settings.toml") {
		t.Errorf("GetSettingsPath() = %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("sk-1234567890abcd"); got != "sk-1...abcd" {
		t.Errorf("MaskKey() = %q", got)
	}
	if got := MaskKey("short"); got != "********" {
		t.Errorf("MaskKey(short) = %q", got)
	}
}

func TestToSMTPConfig(t *testing.T) {
	s := DefaultSettings()
	s.Email.Username = "me@example.com"
	s.Email.From = "me@example.com"
	s.Email.To = "you@example.com"

	got := s.ToSMTPConfig("hunter2")
	if got.Host != "smtp.gmail.com" || got.Port != 587 || got.Password != "hunter2" || got.To != "you@example.com" {
		t.Errorf("ToSMTPConfig() = %+v", got)
	}
}
