package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var ErrConfigNotFound = errors.New("config not found")

// Store reads and writes the pipeline config document at a fixed path.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (*Config, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", s.path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s (run audiodiary init to create one)", ErrConfigNotFound, s.path)
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", s.path, err)
	}

	config := DefaultConfig()
	if err := decodeConfig(s.path, data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	config.applyDefaults()

	abs, err := filepath.Abs(filepath.Dir(s.path))
	if err != nil {
		abs = filepath.Dir(s.path)
	}
	config.baseDir = abs

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", s.path, err)
	}
	return config, nil
}

// Save writes the document through a temp file and a rename so readers never
// observe a half-written config.
func (s *Store) Save(config *Config) error {
	data, err := encodeConfig(s.path, config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// Update loads the document, applies fn and saves the result.
func (s *Store) Update(fn func(*Config) error) (*Config, error) {
	config, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := s.Save(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *Store) SetCurrentDate(date string) (*Config, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	return s.Update(func(c *Config) error {
		c.DiaryManager.CurrentDate = date
		return nil
	})
}

func (s *Store) SetRunsPerDay(n int) (*Config, error) {
	if n < 0 {
		return nil, fmt.Errorf("runs per day must be >= 0, got %d", n)
	}
	return s.Update(func(c *Config) error {
		c.Scheduler.RunsPerDay = n
		return nil
	})
}

// Init writes a default document when none exists yet.
func (s *Store) Init() (bool, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil || exists {
		return false, err
	}
	return true, s.Save(DefaultConfig())
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func decodeConfig(path string, data []byte, config *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, config)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(config)
}

func encodeConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.OutputFile == "" {
		c.OutputFile = d.OutputFile
	}
	if c.DownloadsDirectory == "" {
		c.DownloadsDirectory = d.DownloadsDirectory
	}
	if c.ProcessedDirectory == "" {
		c.ProcessedDirectory = d.ProcessedDirectory
	}
	if c.ReceivedTranscriptionsDirectory == "" {
		c.ReceivedTranscriptionsDirectory = d.ReceivedTranscriptionsDirectory
	}
	if c.Scheduler.LogFile == "" {
		c.Scheduler.LogFile = d.Scheduler.LogFile
	}
	if c.DiaryManager.EntriesFileFormat == "" {
		c.DiaryManager.EntriesFileFormat = d.DiaryManager.EntriesFileFormat
	}
	if c.DiaryManager.LegacyFile == "" {
		c.DiaryManager.LegacyFile = d.DiaryManager.LegacyFile
	}
	if c.DiaryManager.Directory == "" {
		c.DiaryManager.Directory = d.DiaryManager.Directory
	}
	if c.DiaryManager.TodoFile == "" {
		c.DiaryManager.TodoFile = d.DiaryManager.TodoFile
	}
}

// LoadSettings reads the TOML settings document. A missing file yields the
// defaults so a fresh install can run with only an API key in the env.
func LoadSettings(fs afero.Fs, path string) (*Settings, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	settings := DefaultSettings()

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if settings.Providers == nil {
		settings.Providers = make(map[string]ProviderConfig)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	return settings, nil
}

func SaveSettings(fs afero.Fs, path string, settings *Settings) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
