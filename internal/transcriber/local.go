package transcriber

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

func (d *Dispatcher) transcribeLocal(ctx context.Context, path string, m LocalModel) (string, error) {
	// check model file exists
	if ok, _ := afero.Exists(d.fs, m.ModelPath); !ok {
		return "", NewFatalTranscriptionError(fmt.Errorf("model file not found: %s", m.ModelPath))
	}

	// check whisper-cli exists
	whisperPath, err := d.lookPath("whisper-cli")
	if err != nil {
		return "", NewFatalTranscriptionError(fmt.Errorf("whisper-cli not found: install whisper.cpp first"))
	}

	tmp, err := afero.TempFile(d.fs, "", "audiodiary-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	wavPath := tmp.Name()
	tmp.Close()
	defer d.fs.Remove(wavPath)

	if err := d.media.ConvertToWAV(ctx, path, wavPath); err != nil {
		return "", err
	}

	// use whisper-cpp auto if unspecified
	lang := m.Language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", m.ModelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", wavPath,
	}
	if m.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(m.Threads))
	}
	if m.VAD && m.VADModelPath != "" {
		args = append(args, "--vad", "-vm", m.VADModelPath)
	}

	start := time.Now()
	res, err := d.runner.Run(ctx, whisperPath, args...)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		d.log.Error("whisper-cli failed", "path", path, "took", duration, "stderr", res.Stderr)
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	// with -nt whisper-cli prints the transcription only
	text := strings.TrimSpace(res.Stdout)
	d.log.Info("local transcribed", "path", path, "took", duration, "chars", len(text))
	return text, nil
}
