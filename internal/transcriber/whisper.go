package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AudioClient is the part of the OpenAI client the whisper path needs.
type AudioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

func (d *Dispatcher) transcribeWhisper(ctx context.Context, path string, m WhisperModel) (string, error) {
	if d.audio == nil {
		return "", NewFatalTranscriptionError(errors.New("OpenAI API key required for whisper-1"))
	}

	f, err := d.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	format := m.ResponseFormat
	if format == "" {
		format = string(openai.AudioResponseFormatText)
	}

	req := openai.AudioRequest{
		Model:       m.Model,
		Reader:      f,
		FilePath:    filepath.Base(path),
		Prompt:      m.Prompt,
		Temperature: m.Temperature,
		Language:    m.Language,
		Format:      openai.AudioResponseFormat(format),
	}

	start := time.Now()
	resp, err := d.audio.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		d.log.Error("whisper API call failed", "path", path, "took", duration, "err", err)
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	text := resp.Text
	if format == string(openai.AudioResponseFormatVerboseJSON) {
		// segments and words are only worth keeping as a readable dump
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode verbose transcription: %w", err)
		}
		text = string(data)
	}

	d.log.Info("whisper transcribed", "path", path, "took", duration, "chars", len(text))
	return text, nil
}
