package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id       string
		ok       bool
		filename string
	}{
		{"base", true, "ggml-base.bin"},
		{"base.en", true, "ggml-base.en.bin"},
		{"large-v3", true, "ggml-large-v3.bin"},
		{"huge", false, ""},
	}
	for _, tt := range tests {
		m, ok := Lookup(tt.id)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.id, ok, tt.ok)
			continue
		}
		if ok && m.Filename() != tt.filename {
			t.Errorf("Lookup(%q).Filename() = %q, want %q", tt.id, m.Filename(), tt.filename)
		}
	}
}

func TestRegistryDownload(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	reg := NewRegistry(fs, "/models")
	reg.baseURL = srv.URL

	if reg.Installed("tiny") {
		t.Fatal("tiny installed before download")
	}

	var last int64
	path, err := reg.Download(context.Background(), "tiny", func(done, total int64) { last = done })
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "/models/ggml-tiny.bin" {
		t.Errorf("path = %q", path)
	}
	if gotPath != "/ggml-tiny.bin" {
		t.Errorf("requested %q", gotPath)
	}
	if last != 1000 {
		t.Errorf("last progress = %d, want 1000", last)
	}
	if !reg.Installed("tiny") {
		t.Error("tiny not installed after download")
	}
	if ok, _ := afero.Exists(fs, "/models/ggml-tiny.bin.downloading"); ok {
		t.Error("temp file left behind")
	}

	if err := reg.Remove("tiny"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if reg.Installed("tiny") {
		t.Error("tiny still installed after remove")
	}
}

func TestRegistryDownloadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	reg := NewRegistry(fs, "/models")
	reg.baseURL = srv.URL

	if _, err := reg.Download(context.Background(), "nope", nil); err == nil || !strings.Contains(err.Error(), "unknown model") {
		t.Errorf("unknown id: err = %v", err)
	}
	if _, err := reg.Download(context.Background(), "base", nil); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("404: err = %v", err)
	}
	if reg.Installed("base") {
		t.Error("failed download marked installed")
	}
	if err := reg.Remove("base"); err == nil {
		t.Error("Remove of missing model should fail")
	}
}
