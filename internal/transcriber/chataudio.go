package transcriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

const (
	chatAudioSystemPrompt = "Transcribe the audio accurately"
	chatAudioDefaultAsk   = "Please transcribe this audio."
)

type chatAudioRequest struct {
	Model       string             `json:"model"`
	Messages    []chatAudioMessage `json:"messages"`
	Temperature float32            `json:"temperature"`
	Modalities  []string           `json:"modalities"`
}

type chatAudioMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatAudioPart struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	InputAudio *chatAudioInput `json:"input_audio,omitempty"`
}

type chatAudioInput struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type chatAudioResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (d *Dispatcher) transcribeChatAudio(ctx context.Context, path string, m ChatAudioModel) (string, error) {
	if d.cfg.APIKey == "" {
		return "", NewFatalTranscriptionError(errors.New("OpenAI API key required for 4o-transcribe"))
	}

	data, format, err := d.chatAudioPayload(ctx, path)
	if err != nil {
		return "", err
	}

	ask := chatAudioDefaultAsk
	if m.Prompt != "" {
		ask = m.Prompt
	}
	if m.Language != "" {
		ask += fmt.Sprintf(" The audio is in language %q.", m.Language)
	}

	body := chatAudioRequest{
		Model:       m.Model,
		Temperature: m.Temperature,
		Modalities:  []string{"text"},
		Messages: []chatAudioMessage{
			{Role: "system", Content: chatAudioSystemPrompt},
			{Role: "user", Content: []chatAudioPart{
				{Type: "text", Text: ask},
				{Type: "input_audio", InputAudio: &chatAudioInput{
					Data:   base64.StdEncoding.EncodeToString(data),
					Format: format,
				}},
			}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := d.cfg.baseURL() + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	start := time.Now()
	resp, err := d.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		d.log.Error("chat audio API call failed", "path", path, "took", duration, "err", err)
		return "", fmt.Errorf("chat audio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		d.log.Error("chat audio API error", "status", resp.StatusCode, "body", string(bodyBytes))
		err := fmt.Errorf("chat audio API status %d: %s", resp.StatusCode, string(bodyBytes))
		if resp.StatusCode == http.StatusUnauthorized {
			return "", NewFatalTranscriptionError(err)
		}
		return "", err
	}

	var result chatAudioResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat audio: no response choices")
	}

	text := result.Choices[0].Message.Content
	d.log.Info("chat audio transcribed", "path", path, "took", duration, "chars", len(text))
	return text, nil
}

// chatAudioPayload returns audio bytes in a format the chat endpoint accepts.
// mp3 and wav go as-is; anything else is converted to wav first.
func (d *Dispatcher) chatAudioPayload(ctx context.Context, path string) ([]byte, string, error) {
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("audio/mpeg"):
		return data, "mp3", nil
	case mt.Is("audio/wav"):
		return data, "wav", nil
	}

	d.log.Debug("converting for chat audio", "path", path, "mime", mt.String())
	tmp, err := afero.TempFile(d.fs, "", "audiodiary-*.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer d.fs.Remove(tmpPath)

	if err := d.media.ConvertToWAV(ctx, path, tmpPath); err != nil {
		return nil, "", err
	}
	wav, err := afero.ReadFile(d.fs, tmpPath)
	if err != nil {
		return nil, "", fmt.Errorf("read converted audio %s: %w", filepath.Base(tmpPath), err)
	}
	if len(wav) == 0 {
		return nil, "", fmt.Errorf("converted audio is empty: %w", os.ErrInvalid)
	}
	return wav, "wav", nil
}
