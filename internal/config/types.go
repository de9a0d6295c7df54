package config

import (
	"path/filepath"
	"strings"
)

// Config is the pipeline configuration document. Paths may be relative, in
// which case they resolve against the directory holding the document.
type Config struct {
	DownloadsDirectory              string          `json:"downloadsDirectory" yaml:"downloadsDirectory"`
	OutputFile                      string          `json:"outputFile" yaml:"outputFile"`
	ProcessedDirectory              string          `json:"processedDirectory" yaml:"processedDirectory"`
	ReceivedTranscriptionsDirectory string          `json:"receivedTranscriptionsDirectory" yaml:"receivedTranscriptionsDirectory"`
	Scheduler                       SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	DiaryManager                    DiaryConfig     `json:"diaryManager" yaml:"diaryManager"`

	baseDir string
}

type SchedulerConfig struct {
	RunsPerDay  int         `json:"runsPerDay" yaml:"runsPerDay"` // 0 = run once
	LogFile     string      `json:"logFile" yaml:"logFile"`
	LogLevel    string      `json:"logLevel" yaml:"logLevel"`
	ScriptPaths ScriptPaths `json:"scriptPaths" yaml:"scriptPaths"`
}

// ScriptPaths holds the external collaborators the scheduler shells out to.
// Download is a command line; the first field is the program.
type ScriptPaths struct {
	Download string `json:"download" yaml:"download"`
}

type DiaryConfig struct {
	CurrentDate       string `json:"currentDate" yaml:"currentDate"` // YYMMDD
	EntriesFileFormat string `json:"entriesFileFormat" yaml:"entriesFileFormat"`
	LegacyFile        string `json:"legacyFile" yaml:"legacyFile"`
	AutoUpdateDate    bool   `json:"autoUpdateDate" yaml:"autoUpdateDate"`
	Directory         string `json:"directory,omitempty" yaml:"directory,omitempty"`
	TodoFile          string `json:"todoFile,omitempty" yaml:"todoFile,omitempty"`
}

// BaseDir is the directory relative paths resolve against.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// Resolve turns a config-relative path into a usable one.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		return expandHome(p)
	}
	return filepath.Join(c.baseDir, p)
}

func (c *Config) DownloadsPath() string { return c.Resolve(c.DownloadsDirectory) }
func (c *Config) OutputPath() string { return c.Resolve(c.OutputFile) }
func (c *Config) ProcessedPath() string { return c.Resolve(c.ProcessedDirectory) }
func (c *Config) AuditPath() string { return c.Resolve(c.ReceivedTranscriptionsDirectory) }
func (c *Config) LogPath() string { return c.Resolve(c.Scheduler.LogFile) }
func (c *Config) DiaryDir() string { return c.Resolve(c.DiaryManager.Directory) }
func (c *Config) TodoPath() string { return filepath.Join(c.DiaryDir(), c.DiaryManager.TodoFile) }
func (c *Config) LegacyDiaryPath() string { return filepath.Join(c.DiaryDir(), c.DiaryManager.LegacyFile) }

// DownloadCommand splits the configured download command. A relative program
// path is resolved against the config directory when it contains a separator
// or names a script next to the config.
func (c *Config) DownloadCommand() (string, []string) {
	fields := strings.Fields(c.Scheduler.ScriptPaths.Download)
	if len(fields) == 0 {
		return "", nil
	}
	prog := fields[0]
	if strings.ContainsRune(prog, filepath.Separator) || filepath.Ext(prog) != "" {
		prog = c.Resolve(prog)
	}
	if strings.HasSuffix(prog, ".py") {
		return "python3", append([]string{prog}, fields[1:]...)
	}
	return prog, fields[1:]
}

// Settings holds the transcription model selection, the organizer's language
// model parameters and the secondary collaborators. Stored as TOML.
type Settings struct {
	ModelType                string                    `toml:"modelType"`
	ChunkAudio               bool                      `toml:"chunkAudio"`
	MaxChunkSizeMilliseconds int                       `toml:"maxChunkSizeMilliseconds"`
	VADFilter                bool                      `toml:"vadFilter"`
	Local                    LocalSettings             `toml:"local"`
	Whisper                  WhisperSettings           `toml:"whisper"`
	ChatAudio                ChatAudioSettings         `toml:"chatAudio"`
	Organizer                OrganizerSettings         `toml:"organizer"`
	Providers                map[string]ProviderConfig `toml:"providers"`
	Email                    EmailSettings             `toml:"email"`
	Notifications            NotificationsSettings     `toml:"notifications"`
}

const (
	ModelTypeLocal     = "local"
	ModelTypeWhisper   = "whisper-1"
	ModelTypeChatAudio = "4o-transcribe"
)

type LocalSettings struct {
	ModelPath    string `toml:"modelPath"`
	Language     string `toml:"language"`
	Threads      int    `toml:"threads"` // 0 = whisper-cli default
	VADModelPath string `toml:"vadModelPath"`
}

type WhisperSettings struct {
	Model          string  `toml:"model"`
	Language       string  `toml:"language"`
	Prompt         string  `toml:"prompt"`
	ResponseFormat string  `toml:"responseFormat"`
	Temperature    float32 `toml:"temperature"`
}

type ChatAudioSettings struct {
	Model       string  `toml:"model"`
	Language    string  `toml:"language"`
	Prompt      string  `toml:"prompt"`
	Temperature float32 `toml:"temperature"`
}

type OrganizerSettings struct {
	Model            string  `toml:"model"`
	Temperature      float32 `toml:"temperature"`
	MaxTokens        int     `toml:"maxTokens"`
	TopP             float32 `toml:"topP"`
	FrequencyPenalty float32 `toml:"frequencyPenalty"`
	PresencePenalty  float32 `toml:"presencePenalty"`
	EnableCache      bool    `toml:"enableCache"`
	MaxAttempts      int     `toml:"maxAttempts"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"apiKey"`
}

type EmailSettings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	From     string `toml:"from"`
	To       string `toml:"to"`
	Subject  string `toml:"subject"`
}

type NotificationsSettings struct {
	Enabled bool `toml:"enabled"`
}
