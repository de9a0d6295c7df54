// Package diary owns the on-disk diary artifacts: one entries file per day,
// the to-do list and the pending transcript inbox. All files are append-only
// from the pipeline's point of view.
package diary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DateLayout is the YYMMDD stamp used in file names and the config.
const DateLayout = "060102"

const dateToken = "{date}"

type Store struct {
	fs            afero.Fs
	dir           string
	entriesFormat string
	legacyFile    string
	todoFile      string
}

type Options struct {
	Dir           string
	EntriesFormat string // must contain {date}
	LegacyFile    string
	TodoFile      string
}

func NewStore(fs afero.Fs, opts Options) *Store {
	return &Store{
		fs:            fs,
		dir:           opts.Dir,
		entriesFormat: opts.EntriesFormat,
		legacyFile:    opts.LegacyFile,
		todoFile:      opts.TodoFile,
	}
}

func (s *Store) EntriesPath(t time.Time) string {
	name := strings.ReplaceAll(s.entriesFormat, dateToken, t.Format(DateLayout))
	return filepath.Join(s.dir, name)
}

func (s *Store) TodoPath() string {
	return s.path(s.todoFile)
}

func (s *Store) LegacyPath() string {
	return s.path(s.legacyFile)
}

func (s *Store) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

func header(t time.Time) string {
	return fmt.Sprintf("# Diary Entries for %s\n\n", t.Format("2006-01-02"))
}

// StartDay creates the entries file for t's date with its header and a
// rollover note. It returns false when the file already exists.
func (s *Store) StartDay(t time.Time) (bool, error) {
	p := s.EntriesPath(t)
	exists, err := afero.Exists(s.fs, p)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	content := header(t) + fmt.Sprintf(
		"## System Note - %s\n\nNew day started. Previous entries are in the previous day's file.\n\n",
		t.Format("15:04"),
	)
	if err := s.write(p, content); err != nil {
		return false, fmt.Errorf("create diary file: %w", err)
	}
	return true, nil
}

// AppendEntry adds an entry under its own time heading, creating the day's
// file with its header first when needed.
func (s *Store) AppendEntry(t time.Time, entry string) (string, error) {
	p := s.EntriesPath(t)
	exists, err := afero.Exists(s.fs, p)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := s.write(p, header(t)); err != nil {
			return "", fmt.Errorf("create diary file: %w", err)
		}
	}

	block := fmt.Sprintf("\n\n## Entry at %s\n\n%s", t.Format("15:04"), strings.TrimSpace(entry))
	if err := s.appendTo(p, block); err != nil {
		return "", fmt.Errorf("append diary entry: %w", err)
	}
	return p, nil
}

// PriorEntries returns the content of t's diary file, or the legacy file when
// the dated one is missing or blank.
func (s *Store) PriorEntries(t time.Time) (string, error) {
	content, err := s.read(s.EntriesPath(t))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) != "" {
		return content, nil
	}
	if s.legacyFile == "" {
		return "", nil
	}
	return s.read(s.LegacyPath())
}

// AppendTodos appends a timestamped block. Existing items are never touched.
func (s *Store) AppendTodos(t time.Time, items []string) error {
	if len(items) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n--- Added on %s ---\n", t.Format("2006-01-02 15:04"))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	if err := s.appendTo(s.TodoPath(), b.String()); err != nil {
		return fmt.Errorf("append to-do items: %w", err)
	}
	return nil
}

// read returns "" for a missing file.
func (s *Store) read(p string) (string, error) {
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Store) write(p, content string) error {
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, []byte(content), 0o644)
}

func (s *Store) appendTo(p, content string) error {
	return appendFile(s.fs, p, content)
}

func appendFile(fs afero.Fs, p, content string) error {
	if err := fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := fs.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
