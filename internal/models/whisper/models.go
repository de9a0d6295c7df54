package whisper

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// ModelInfo describes one ggml checkpoint for whisper-cli.
type ModelInfo struct {
	ID           string
	SizeBytes    int64
	Multilingual bool
}

// Filename is the on-disk and upstream name, e.g. ggml-base.en.bin.
func (m ModelInfo) Filename() string {
	return "ggml-" + m.ID + ".bin"
}

// published at huggingface.co/ggerganov/whisper.cpp
var models = []ModelInfo{
	{ID: "tiny.en", SizeBytes: 75_000_000},
	{ID: "base.en", SizeBytes: 142_000_000},
	{ID: "small.en", SizeBytes: 466_000_000},
	{ID: "medium.en", SizeBytes: 1_500_000_000},
	{ID: "tiny", SizeBytes: 75_000_000, Multilingual: true},
	{ID: "base", SizeBytes: 142_000_000, Multilingual: true},
	{ID: "small", SizeBytes: 466_000_000, Multilingual: true},
	{ID: "medium", SizeBytes: 1_500_000_000, Multilingual: true},
	{ID: "large-v3", SizeBytes: 3_000_000_000, Multilingual: true},
}

var modelByID = func() map[string]ModelInfo {
	m := make(map[string]ModelInfo, len(models))
	for _, model := range models {
		m[model.ID] = model
	}
	return m
}()

const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// DefaultDir is where downloaded models live. The default local.modelPath
// points into it.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "audiodiary", "models")
}

func Lookup(id string) (ModelInfo, bool) {
	m, ok := modelByID[id]
	return m, ok
}

func List() []ModelInfo {
	out := make([]ModelInfo, len(models))
	copy(out, models)
	return out
}
