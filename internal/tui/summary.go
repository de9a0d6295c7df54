package tui

import (
	"fmt"
	"time"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/language"
)

func formatModelLabel(cfg *config.Settings) string {
	return fmt.Sprintf("Transcription Model (%s)", cfg.ModelType)
}

func formatChunkingLabel(cfg *config.Settings) string {
	if !cfg.ChunkAudio {
		return "Chunking (off)"
	}
	return fmt.Sprintf("Chunking (%s)", chunkLength(cfg))
}

func formatOrganizerLabel(cfg *config.Settings) string {
	return fmt.Sprintf("Organizer (%s)", cfg.Organizer.Model)
}

func formatAPIKeyLabel(cfg *config.Settings) string {
	if key := cfg.Providers["openai"].APIKey; key != "" {
		return fmt.Sprintf("API Key (%s)", config.MaskKey(key))
	}
	return "API Key (from environment)"
}

func formatEmailLabel(cfg *config.Settings) string {
	if cfg.Email.To == "" {
		return "Email (not configured)"
	}
	return fmt.Sprintf("Email (%s)", cfg.Email.To)
}

func formatNotificationsLabel(cfg *config.Settings) string {
	if cfg.Notifications.Enabled {
		return "Notifications (on)"
	}
	return "Notifications (off)"
}

func chunkLength(cfg *config.Settings) time.Duration {
	return time.Duration(cfg.MaxChunkSizeMilliseconds) * time.Millisecond
}

// summaryLines lists label/value pairs for the save confirmation.
func summaryLines(cfg *config.Settings) [][2]string {
	lines := [][2]string{{"Model", cfg.ModelType}}

	switch cfg.ModelType {
	case config.ModelTypeLocal:
		lines = append(lines,
			[2]string{"Model path", cfg.Local.ModelPath},
			[2]string{"Language", orAuto(cfg.Local.Language)},
		)
		if cfg.Local.Threads > 0 {
			lines = append(lines, [2]string{"Threads", fmt.Sprint(cfg.Local.Threads)})
		}
	case config.ModelTypeWhisper:
		lines = append(lines,
			[2]string{"Language", orAuto(cfg.Whisper.Language)},
			[2]string{"Format", cfg.Whisper.ResponseFormat},
			[2]string{"Temperature", formatFloat(cfg.Whisper.Temperature)},
		)
	case config.ModelTypeChatAudio:
		lines = append(lines,
			[2]string{"Chat model", cfg.ChatAudio.Model},
			[2]string{"Language", orAuto(cfg.ChatAudio.Language)},
		)
	}

	chunking := "off"
	if cfg.ChunkAudio {
		chunking = chunkLength(cfg).String()
	}
	lines = append(lines,
		[2]string{"Chunking", chunking},
		[2]string{"Organizer", fmt.Sprintf("%s (temperature %s, %d tokens)",
			cfg.Organizer.Model, formatFloat(cfg.Organizer.Temperature), cfg.Organizer.MaxTokens)},
		[2]string{"API key", maskedOrEnv(cfg.Providers["openai"].APIKey)},
	)
	if cfg.Email.To != "" {
		lines = append(lines, [2]string{"Email", fmt.Sprintf("%s via %s:%d", cfg.Email.To, cfg.Email.Host, cfg.Email.Port)})
	}
	if cfg.Notifications.Enabled {
		lines = append(lines, [2]string{"Notifications", "enabled"})
	} else {
		lines = append(lines, [2]string{"Notifications", "disabled"})
	}
	return lines
}

func orAuto(lang string) string {
	return language.Label(lang)
}

func maskedOrEnv(key string) string {
	if key == "" {
		return "from OPENAI_API_KEY"
	}
	return config.MaskKey(key)
}
