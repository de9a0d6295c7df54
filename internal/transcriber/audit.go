package transcriber

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// auditWriter persists every unit transcript under the received
// transcriptions directory. Names carry a one-second timestamp; a sequence
// suffix keeps units finishing in the same second from overwriting each other.
type auditWriter struct {
	fs  afero.Fs
	dir string
	now func() time.Time

	mu  sync.Mutex
	seq uint64
}

func newAuditWriter(fs afero.Fs, dir string) *auditWriter {
	return &auditWriter{fs: fs, dir: dir, now: time.Now}
}

func (w *auditWriter) Write(unitPath, sourcePath, modelType, text string) (string, error) {
	if w.dir == "" {
		return "", nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit directory: %w", err)
	}

	now := w.now()
	unitName := filepath.Base(unitPath)
	base := strings.TrimSuffix(unitName, filepath.Ext(unitName))
	stem := fmt.Sprintf("%s_%s_%s", base, modelType, now.Format("20060102_150405"))

	name := filepath.Join(w.dir, stem+".txt")
	for {
		exists, err := afero.Exists(w.fs, name)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		w.seq++
		name = filepath.Join(w.dir, fmt.Sprintf("%s_%d.txt", stem, w.seq))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Transcription of %s\n", unitName)
	fmt.Fprintf(&b, "# Model: %s\n", modelType)
	fmt.Fprintf(&b, "# Timestamp: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "# Original file: %s\n\n", sourcePath)
	b.WriteString(text)
	b.WriteString("\n")

	if err := afero.WriteFile(w.fs, name, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write audit transcript: %w", err)
	}
	return name, nil
}
