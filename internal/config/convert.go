package config

import (
	"fmt"
	"time"

	"github.com/leonardotrapani/audiodiary/internal/notify"
	"github.com/leonardotrapani/audiodiary/internal/organizer"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

// ToModel maps the settings onto the transcription model variant they select.
func (s *Settings) ToModel() (transcriber.Model, error) {
	switch s.ModelType {
	case ModelTypeLocal:
		return transcriber.LocalModel{
			ModelPath:    expandHome(s.Local.ModelPath),
			Language:     s.Local.Language,
			Threads:      s.Local.Threads,
			VAD:          s.VADFilter,
			VADModelPath: expandHome(s.Local.VADModelPath),
		}, nil
	case ModelTypeWhisper:
		return transcriber.WhisperModel{
			Model:          s.Whisper.Model,
			Language:       s.Whisper.Language,
			Prompt:         s.Whisper.Prompt,
			ResponseFormat: s.Whisper.ResponseFormat,
			Temperature:    s.Whisper.Temperature,
		}, nil
	case ModelTypeChatAudio:
		return transcriber.ChatAudioModel{
			Model:       s.ChatAudio.Model,
			Language:    s.ChatAudio.Language,
			Prompt:      s.ChatAudio.Prompt,
			Temperature: s.ChatAudio.Temperature,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported model type: %s", s.ModelType)
	}
}

// NeedsAPIKey reports whether the selected transcription model calls OpenAI.
func (s *Settings) NeedsAPIKey() bool {
	return s.ModelType != ModelTypeLocal
}

func (s *Settings) ToTranscriberConfig(c *Config, apiKey string) (transcriber.Config, error) {
	model, err := s.ToModel()
	if err != nil {
		return transcriber.Config{}, err
	}
	return transcriber.Config{
		Model:      model,
		APIKey:     apiKey,
		ChunkAudio: s.ChunkAudio,
		MaxChunk:   time.Duration(s.MaxChunkSizeMilliseconds) * time.Millisecond,
		AuditDir:   c.AuditPath(),
	}, nil
}

func (s *Settings) ToOrganizerConfig(apiKey string) organizer.Config {
	o := s.Organizer
	return organizer.Config{
		APIKey:           apiKey,
		Model:            o.Model,
		Temperature:      o.Temperature,
		MaxTokens:        o.MaxTokens,
		TopP:             o.TopP,
		FrequencyPenalty: o.FrequencyPenalty,
		PresencePenalty:  o.PresencePenalty,
		EnableCache:      o.EnableCache,
		MaxAttempts:      o.MaxAttempts,
	}
}

// ToSMTPConfig combines the email settings with the password taken from the
// environment.
func (s *Settings) ToSMTPConfig(password string) notify.SMTPConfig {
	e := s.Email
	return notify.SMTPConfig{
		Host:     e.Host,
		Port:     e.Port,
		Username: e.Username,
		Password: password,
		From:     e.From,
		To:       e.To,
		Subject:  e.Subject,
	}
}

type KeySource string

const (
	KeySourceSettings KeySource = "settings (providers.openai.apiKey)"
	KeySourceEnv      KeySource = "environment (OPENAI_API_KEY)"
	KeySourceMissing  KeySource = "not configured"
)

// ResolveAPIKey returns the OpenAI key: settings first, then the environment.
func (s *Settings) ResolveAPIKey(env Env) (string, KeySource) {
	if p, ok := s.Providers["openai"]; ok && p.APIKey != "" {
		return p.APIKey, KeySourceSettings
	}
	if env.OpenAIAPIKey != "" {
		return env.OpenAIAPIKey, KeySourceEnv
	}
	return "", KeySourceMissing
}

// RequireAPIKey is ResolveAPIKey with the error the CLI shows when nothing is set.
func (s *Settings) RequireAPIKey(env Env) (string, error) {
	key, _ := s.ResolveAPIKey(env)
	if key == "" {
		return "", fmt.Errorf("OpenAI API key required: not found in settings (providers.openai.apiKey) or environment variable (OPENAI_API_KEY)")
	}
	return key, nil
}

// MaskKey keeps the first and last four characters of a key.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
