package config

// DefaultConfig returns the pipeline document written by a fresh install.
func DefaultConfig() *Config {
	return &Config{
		DownloadsDirectory:              "downloads",
		OutputFile:                      "transcription.txt",
		ProcessedDirectory:              "processed",
		ReceivedTranscriptionsDirectory: "received_transcriptions",
		Scheduler: SchedulerConfig{
			RunsPerDay: 1,
			LogFile:    "scheduler.log",
			LogLevel:   "info",
			ScriptPaths: ScriptPaths{
				Download: "download-from-gdrive.py",
			},
		},
		DiaryManager: DiaryConfig{
			EntriesFileFormat: "{date}_ongoing_entries.txt",
			LegacyFile:        "diary_entries.txt",
			AutoUpdateDate:    true,
			Directory:         ".",
			TodoFile:          "to_do.txt",
		},
	}
}

// DefaultSettings returns the transcription and organizer defaults.
func DefaultSettings() *Settings {
	return &Settings{
		ModelType:                ModelTypeWhisper,
		ChunkAudio:               false,
		MaxChunkSizeMilliseconds: 1440000, // 24 minutes
		VADFilter:                false,
		Local: LocalSettings{
			ModelPath: "~/.local/share/audiodiary/models/ggml-base.bin",
		},
		Whisper: WhisperSettings{
			Model:          "whisper-1",
			ResponseFormat: "text",
		},
		ChatAudio: ChatAudioSettings{
			Model: "gpt-4o-audio-preview",
		},
		Organizer: OrganizerSettings{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.3,
			MaxTokens:   2048,
			TopP:        0.9,
			EnableCache: true,
			MaxAttempts: 3,
		},
		Providers: make(map[string]ProviderConfig),
		Email: EmailSettings{
			Host:    "smtp.gmail.com",
			Port:    587,
			Subject: "Your audio transcript",
		},
	}
}
