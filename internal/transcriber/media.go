package transcriber

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// bytesPerMinute is the fallback bitrate guess when ffprobe is unavailable.
const bytesPerMinute = 3 * 1024 * 1024

// Duration is a media length. Estimated is set when it came from the file
// size heuristic rather than ffprobe; such values only size chunking.
type Duration struct {
	Seconds   float64
	Estimated bool
}

// Media wraps the ffprobe/ffmpeg collaborators.
type Media struct {
	fs     afero.Fs
	runner Runner
	log    *log.Logger
}

func NewMedia(fs afero.Fs, runner Runner, logger *log.Logger) *Media {
	return &Media{fs: fs, runner: runner, log: logger.WithPrefix("media")}
}

func (m *Media) EstimateDuration(ctx context.Context, path string) (Duration, error) {
	res, err := m.runner.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err == nil {
		if secs, perr := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64); perr == nil {
			return Duration{Seconds: secs}, nil
		}
		m.log.Warn("unparseable ffprobe output", "path", path, "out", res.Stdout)
	} else {
		m.log.Debug("ffprobe unavailable, estimating from size", "path", path, "err", err)
	}

	info, err := m.fs.Stat(path)
	if err != nil {
		return Duration{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Duration{Seconds: float64(info.Size()) / bytesPerMinute * 60, Estimated: true}, nil
}

// ChunkIfNeeded splits path into consecutive segments of at most maxChunk. When
// no split is needed it returns the original path and runs nothing. The
// cleanup func removes the temporary chunk directory.
func (m *Media) ChunkIfNeeded(ctx context.Context, path string, maxChunk time.Duration) ([]string, func(), error) {
	noop := func() {}
	maxSecs := maxChunk.Seconds()
	if maxSecs <= 0 {
		return []string{path}, noop, nil
	}

	d, err := m.EstimateDuration(ctx, path)
	if err != nil {
		return nil, noop, err
	}
	if d.Seconds <= maxSecs {
		return []string{path}, noop, nil
	}

	n := int(math.Ceil(d.Seconds / maxSecs))
	tmpDir, err := afero.TempDir(m.fs, "", "audiodiary-chunks-")
	if err != nil {
		return nil, noop, fmt.Errorf("create chunk directory: %w", err)
	}
	cleanup := func() { _ = m.fs.RemoveAll(tmpDir) }

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	m.log.Info("splitting audio", "path", path, "duration", d.Seconds, "estimated", d.Estimated, "chunks", n)

	var chunks []string
	for i := 0; i < n; i++ {
		out := filepath.Join(tmpDir, fmt.Sprintf("%s_chunk%d%s", base, i, ext))
		start := float64(i) * maxSecs
		_, err := m.runner.Run(ctx, "ffmpeg",
			"-y",
			"-i", path,
			"-ss", formatSeconds(start),
			"-t", formatSeconds(maxSecs),
			"-c", "copy",
			out,
		)
		if err != nil {
			m.log.Warn("chunk failed", "chunk", i, "err", err)
			continue
		}
		info, err := m.fs.Stat(out)
		if err != nil || info.Size() == 0 {
			m.log.Warn("chunk missing or empty, dropping", "chunk", i)
			continue
		}
		chunks = append(chunks, out)
	}
	return chunks, cleanup, nil
}

// ConvertToWAV writes 16 kHz mono PCM, the input whisper.cpp expects.
func (m *Media) ConvertToWAV(ctx context.Context, in, out string) error {
	_, err := m.runner.Run(ctx, "ffmpeg",
		"-y",
		"-i", in,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		out,
	)
	if err != nil {
		return fmt.Errorf("convert to WAV: %w", err)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
