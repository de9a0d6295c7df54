package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leonardotrapani/audiodiary/internal/language"
)

var dateRe = regexp.MustCompile(`^\d{6}$`)

func (c *Config) Validate() error {
	if c.Scheduler.RunsPerDay < 0 {
		return fmt.Errorf("invalid scheduler.runsPerDay: %d (must be >= 0)", c.Scheduler.RunsPerDay)
	}
	if c.Scheduler.RunsPerDay > 86400 {
		return fmt.Errorf("invalid scheduler.runsPerDay: %d (at most one run per second)", c.Scheduler.RunsPerDay)
	}
	if !strings.Contains(c.DiaryManager.EntriesFileFormat, "{date}") {
		return fmt.Errorf("invalid diaryManager.entriesFileFormat: %q (missing {date} placeholder)", c.DiaryManager.EntriesFileFormat)
	}
	if c.DiaryManager.CurrentDate != "" {
		if err := ValidateDate(c.DiaryManager.CurrentDate); err != nil {
			return fmt.Errorf("invalid diaryManager.currentDate: %w", err)
		}
	}
	if c.DownloadsDirectory == "" {
		return fmt.Errorf("invalid downloadsDirectory: empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("invalid outputFile: empty")
	}
	return nil
}

// ValidateDate checks a YYMMDD diary date.
func ValidateDate(date string) error {
	if !dateRe.MatchString(date) {
		return fmt.Errorf("date %q must be in YYMMDD format", date)
	}
	if _, err := time.Parse("060102", date); err != nil {
		return fmt.Errorf("date %q is not a calendar date", date)
	}
	return nil
}

func (s *Settings) Validate() error {
	switch s.ModelType {
	case ModelTypeLocal:
		if s.Local.ModelPath == "" {
			return fmt.Errorf("invalid local.modelPath: empty")
		}
		if s.Local.Threads < 0 {
			return fmt.Errorf("invalid local.threads: %d", s.Local.Threads)
		}
		if s.Local.Language != "" && !isValidLanguageCode(s.Local.Language) {
			return fmt.Errorf("invalid local.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", s.Local.Language)
		}
	case ModelTypeWhisper:
		switch s.Whisper.ResponseFormat {
		case "text", "json", "verbose_json", "srt", "vtt":
		default:
			return fmt.Errorf("invalid whisper.responseFormat: %q (must be text, json, verbose_json, srt or vtt)", s.Whisper.ResponseFormat)
		}
		if s.Whisper.Temperature < 0 || s.Whisper.Temperature > 1 {
			return fmt.Errorf("invalid whisper.temperature: %v (must be between 0 and 1)", s.Whisper.Temperature)
		}
		if s.Whisper.Language != "" && !isValidLanguageCode(s.Whisper.Language) {
			return fmt.Errorf("invalid whisper.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", s.Whisper.Language)
		}
	case ModelTypeChatAudio:
		if s.ChatAudio.Model == "" {
			return fmt.Errorf("invalid chatAudio.model: empty")
		}
	default:
		return fmt.Errorf("invalid modelType: %q (must be %s, %s or %s)", s.ModelType, ModelTypeLocal, ModelTypeWhisper, ModelTypeChatAudio)
	}

	if s.ChunkAudio && s.MaxChunkSizeMilliseconds <= 0 {
		return fmt.Errorf("invalid maxChunkSizeMilliseconds: %d", s.MaxChunkSizeMilliseconds)
	}

	o := s.Organizer
	if o.Model == "" {
		return fmt.Errorf("invalid organizer.model: empty")
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("invalid organizer.temperature: %v", o.Temperature)
	}
	if o.TopP < 0 || o.TopP > 1 {
		return fmt.Errorf("invalid organizer.topP: %v", o.TopP)
	}
	if o.MaxTokens <= 0 {
		return fmt.Errorf("invalid organizer.maxTokens: %d", o.MaxTokens)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("invalid organizer.maxAttempts: %d", o.MaxAttempts)
	}
	return nil
}

func isValidLanguageCode(code string) bool {
	return language.Valid(code)
}
