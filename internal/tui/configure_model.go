package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/language"
)

const langDesc = "ISO-639-1 code (e.g., 'en', 'es', 'fr') or empty for auto-detect"

// editModel picks the transcription model and then its parameters
func editModel(cfg *config.Settings) error {
	modelType := cfg.ModelType
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Model").
				Description(fmt.Sprintf("Currently: %s", cfg.ModelType)).
				Options(
					huh.NewOption("Local whisper.cpp (offline)", config.ModelTypeLocal),
					huh.NewOption("OpenAI whisper-1", config.ModelTypeWhisper),
					huh.NewOption("OpenAI 4o audio chat", config.ModelTypeChatAudio),
				).
				Value(&modelType),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	var err error
	switch modelType {
	case config.ModelTypeLocal:
		err = editLocal(cfg)
	case config.ModelTypeWhisper:
		err = editWhisper(cfg)
	case config.ModelTypeChatAudio:
		err = editChatAudio(cfg)
	}
	if err != nil {
		return err
	}
	cfg.ModelType = modelType
	return nil
}

func editLocal(cfg *config.Settings) error {
	modelPath := cfg.Local.ModelPath
	lang := cfg.Local.Language
	threads := strconv.Itoa(cfg.Local.Threads)
	vad := cfg.VADFilter
	vadModel := cfg.Local.VADModelPath

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model Path").
				Description("ggml model file used by whisper-cli").
				Value(&modelPath).
				Validate(validateRequired),
			huh.NewInput().
				Title("Language").
				Description(langDesc).
				Placeholder(language.AutoLabel).
				Value(&lang).
				Validate(validateLanguage),
			huh.NewInput().
				Title("Threads").
				Description("0 uses the whisper-cli default").
				Placeholder("0").
				Value(&threads).
				Validate(validateIntMin(0)),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Voice Activity Detection").
				Description("Skip silence before transcribing").
				Value(&vad),
			huh.NewInput().
				Title("VAD Model Path").
				Description("Required by whisper-cli when VAD is on").
				Value(&vadModel),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Local.ModelPath = modelPath
	cfg.Local.Language = lang
	cfg.Local.Threads, _ = parseInt(threads)
	cfg.VADFilter = vad
	cfg.Local.VADModelPath = vadModel
	return nil
}

func editWhisper(cfg *config.Settings) error {
	lang := cfg.Whisper.Language
	prompt := cfg.Whisper.Prompt
	format := cfg.Whisper.ResponseFormat
	temperature := formatFloat(cfg.Whisper.Temperature)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Language").
				Description(langDesc).
				Placeholder(language.AutoLabel).
				Value(&lang).
				Validate(validateLanguage),
			huh.NewText().
				Title("Prompt").
				Description("Optional context to guide spelling and style").
				Value(&prompt),
			huh.NewSelect[string]().
				Title("Response Format").
				Options(huh.NewOptions("text", "json", "verbose_json", "srt", "vtt")...).
				Value(&format),
			huh.NewInput().
				Title("Temperature").
				Description("0 to 1").
				Value(&temperature).
				Validate(validateFloatRange(0, 1)),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Whisper.Language = lang
	cfg.Whisper.Prompt = prompt
	cfg.Whisper.ResponseFormat = format
	cfg.Whisper.Temperature, _ = parseFloat(temperature)
	return nil
}

func editChatAudio(cfg *config.Settings) error {
	model := cfg.ChatAudio.Model
	lang := cfg.ChatAudio.Language
	prompt := cfg.ChatAudio.Prompt

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Audio Chat Model").
				Options(huh.NewOptions("gpt-4o-audio-preview", "gpt-4o-mini-audio-preview")...).
				Value(&model),
			huh.NewInput().
				Title("Language").
				Description(langDesc).
				Placeholder(language.AutoLabel).
				Value(&lang).
				Validate(validateLanguage),
			huh.NewText().
				Title("Prompt").
				Description("Replaces the default transcription request").
				Value(&prompt),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.ChatAudio.Model = model
	cfg.ChatAudio.Language = lang
	cfg.ChatAudio.Prompt = prompt
	return nil
}

func editChunking(cfg *config.Settings) error {
	chunk := cfg.ChunkAudio
	minutes := strconv.Itoa(cfg.MaxChunkSizeMilliseconds / 60000)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Split Long Audio").
				Description("Cut recordings into chunks with ffmpeg before transcribing").
				Value(&chunk),
			huh.NewInput().
				Title("Max Chunk Length (minutes)").
				Description("The OpenAI upload limit is about 25 minutes of mp3").
				Value(&minutes).
				Validate(validateIntMin(1)),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.ChunkAudio = chunk
	m, _ := parseInt(minutes)
	cfg.MaxChunkSizeMilliseconds = m * 60000
	return nil
}
