package diary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var sectionRe = regexp.MustCompile(`(?m)^--- Transcription (\d+) ---$`)

// Inbox is the pending transcript file filled by the transcribe step and
// drained by the organize step. Text survives there until organizing it
// succeeds.
type Inbox struct {
	fs   afero.Fs
	path string
}

func NewInbox(fs afero.Fs, path string) *Inbox {
	return &Inbox{fs: fs, path: path}
}

func (in *Inbox) Path() string {
	return in.path
}

// Append adds one numbered section per text, continuing the numbering of
// whatever is already pending.
func (in *Inbox) Append(t time.Time, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	current, err := in.Read()
	if err != nil {
		return err
	}

	var b strings.Builder
	if strings.TrimSpace(current) == "" {
		fmt.Fprintf(&b, "# Transcriptions %s\n", t.Format("2006-01-02"))
		if current != "" {
			// whitespace-only leftovers from a previous Clear
			if err := in.Clear(); err != nil {
				return err
			}
		}
	}

	n := len(sectionRe.FindAllString(current, -1))
	for i, text := range texts {
		fmt.Fprintf(&b, "\n--- Transcription %d ---\n%s\n", n+i+1, strings.TrimSpace(text))
	}
	if err := appendFile(in.fs, in.path, b.String()); err != nil {
		return fmt.Errorf("append transcripts: %w", err)
	}
	return nil
}

func (in *Inbox) Read() (string, error) {
	data, err := afero.ReadFile(in.fs, in.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read transcripts: %w", err)
	}
	return string(data), nil
}

// Body returns the pending transcript text without the headers and section
// separators. Text that was placed in the file by hand is kept as is.
func (in *Inbox) Body() (string, error) {
	content, err := in.Read()
	if err != nil {
		return "", err
	}

	var parts []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# Transcriptions ") || sectionRe.MatchString(trimmed) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// Clear truncates the inbox after its text has been organized.
func (in *Inbox) Clear() error {
	if err := in.fs.MkdirAll(filepath.Dir(in.path), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(in.fs, in.path, nil, 0o644); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}
	return nil
}
