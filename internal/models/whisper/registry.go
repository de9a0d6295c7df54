package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ProgressFunc receives bytes written so far and the expected total.
type ProgressFunc func(done, total int64)

// Registry manages downloaded models in one directory.
type Registry struct {
	fs      afero.Fs
	dir     string
	baseURL string
	client  *http.Client
}

func NewRegistry(fs afero.Fs, dir string) *Registry {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = DefaultDir()
	}
	return &Registry{fs: fs, dir: dir, baseURL: DefaultBaseURL, client: http.DefaultClient}
}

func (r *Registry) Dir() string { return r.dir }

// Path is where the model lives once downloaded. Empty for unknown ids.
func (r *Registry) Path(id string) string {
	m, ok := Lookup(id)
	if !ok {
		return ""
	}
	return filepath.Join(r.dir, m.Filename())
}

func (r *Registry) Installed(id string) bool {
	p := r.Path(id)
	if p == "" {
		return false
	}
	info, err := r.fs.Stat(p)
	return err == nil && info.Size() > 0
}

type progressWriter struct {
	w          io.Writer
	done       int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)
	if p.onProgress != nil {
		p.onProgress(p.done, p.total)
	}
	return n, err
}

// Download fetches the model into a temp file and renames it into place, so
// an interrupted download never looks installed.
func (r *Registry) Download(ctx context.Context, id string, onProgress ProgressFunc) (string, error) {
	m, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("unknown model: %s", id)
	}
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+m.Filename(), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	dest := r.Path(id)
	tmp := dest + ".downloading"
	out, err := r.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	total := resp.ContentLength
	if total < 0 {
		total = m.SizeBytes
	}
	pw := &progressWriter{w: out, total: total, onProgress: onProgress}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		out.Close()
		_ = r.fs.Remove(tmp)
		return "", fmt.Errorf("failed to write model: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = r.fs.Remove(tmp)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := r.fs.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to finalize download: %w", err)
	}
	return dest, nil
}

func (r *Registry) Remove(id string) error {
	if _, ok := Lookup(id); !ok {
		return fmt.Errorf("unknown model: %s", id)
	}
	if !r.Installed(id) {
		return fmt.Errorf("model not installed: %s", id)
	}
	if err := r.fs.Remove(r.Path(id)); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}
