// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/organizer"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

// Call is one recorded Runner invocation.
type Call struct {
	Name string
	Args []string
}

// Runner is a scripted transcriber.Runner. Stdout is keyed by program name.
type Runner struct {
	Stdout map[string]string
	Err    error

	mu    sync.Mutex
	calls []Call
}

func (r *Runner) Run(_ context.Context, name string, args ...string) (transcriber.RunResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: args})
	r.mu.Unlock()

	res := transcriber.RunResult{Stdout: r.Stdout[name]}
	if r.Err != nil {
		res.ExitCode = 1
	}
	return res, r.Err
}

func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Completer answers every chat completion with Content.
type Completer struct {
	Content string
	Err     error

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

func (c *Completer) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.Err != nil {
		return openai.ChatCompletionResponse{}, c.Err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: c.Content}}},
		Usage:   openai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func (c *Completer) Requests() []openai.ChatCompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), c.requests...)
}

// OrganizerReply builds a model reply with the three sections the organizer
// parses. An empty todos list produces the no-items marker.
func OrganizerReply(entry string, todos ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\nNew entry.\n\n", organizer.HeadingCategorization)
	fmt.Fprintf(&b, "## %s\n%s\n\n", organizer.HeadingOrganizedEntry, entry)
	fmt.Fprintf(&b, "## %s\n", organizer.HeadingTodoItems)
	if len(todos) == 0 {
		b.WriteString(organizer.NoTodosMarker + ".\n")
	}
	for _, t := range todos {
		b.WriteString("- " + t + "\n")
	}
	return b.String()
}

// Notifier records CycleFinished outcomes and error messages.
type Notifier struct {
	mu       sync.Mutex
	finished []bool
	errors   []string
}

func (n *Notifier) CycleFinished(ok bool, _ string) {
	n.mu.Lock()
	n.finished = append(n.finished, ok)
	n.mu.Unlock()
}

func (n *Notifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

func (n *Notifier) Finished() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]bool(nil), n.finished...)
}

func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func Exists(fs afero.Fs, path string) bool {
	ok, _ := afero.Exists(fs, path)
	return ok
}

// WaitFor polls cond for up to two seconds.
func WaitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
