package organizer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/leonardotrapani/audiodiary/internal/logging"
)

type fakeCompleter struct {
	replies []string
	errs    []error
	calls   int
	reqs    []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	f.reqs = append(f.reqs, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	content := ""
	if i < len(f.replies) {
		content = f.replies[i]
	} else if len(f.replies) > 0 {
		content = f.replies[len(f.replies)-1]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
		Usage:   openai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func newTestOrganizer(cfg Config, c Completer) (*Organizer, *[]time.Duration) {
	o := New(cfg, c, logging.Discard())
	var slept []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return o, &slept
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		prior    string
		contains []string
	}{
		{
			name:  "no prior entries",
			entry: "Went for a run.",
			contains: []string{
				"# PREVIOUS DIARY ENTRIES:\nNo previous entries exist yet.",
				"# NEW DIARY ENTRY:\nWent for a run.",
				"## ENTRY CATEGORIZATION",
				"## ORGANIZED ENTRY",
				"## TO-DO ITEMS",
				"No to-do items detected",
			},
		},
		{
			name:  "with prior entries",
			entry: "  Evening thoughts.  ",
			prior: "## Entry at 09:00\n\nMorning.",
			contains: []string{
				"# PREVIOUS DIARY ENTRIES:\n## Entry at 09:00\n\nMorning.",
				"# NEW DIARY ENTRY:\nEvening thoughts.\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPrompt(tt.entry, tt.prior)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("prompt missing %q", s)
				}
			}
		})
	}
}

func TestParseSection(t *testing.T) {
	resp := "## ENTRY CATEGORIZATION\n- **Main Topics**: work\n\n## ORGANIZED ENTRY\nHello\n\nSecond paragraph.\n\n## TO-DO ITEMS\n- buy milk"

	tests := []struct {
		heading string
		want    string
		ok      bool
	}{
		{HeadingCategorization, "- **Main Topics**: work", true},
		{HeadingOrganizedEntry, "Hello\n\nSecond paragraph.", true},
		{HeadingTodoItems, "- buy milk", true},
		{"SUMMARY", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			got, ok := ParseSection(resp, tt.heading)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseSection(%q) = %q, %v; want %q, %v", tt.heading, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractTodoItems(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"dashes", "## TO-DO ITEMS\n- buy milk\n- call mom", []string{"buy milk", "call mom"}},
		{"stars and numbers", "## TO-DO ITEMS\n* water plants\n1. pay rent\n2.  book dentist", []string{"water plants", "pay rent", "book dentist"}},
		{"none detected", "## TO-DO ITEMS\nNo to-do items detected.", []string{}},
		{"section missing", "## ORGANIZED ENTRY\nHello", []string{}},
		{"prose lines ignored", "## TO-DO ITEMS\nHere you go:\n- email Sam\n-\n", []string{"email Sam"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTodoItems(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTodoItems() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"## ORGANIZED ENTRY\nHello\n\n## TO-DO ITEMS\n- buy milk\n- call mom"}}
	o, _ := newTestOrganizer(Config{Model: "gpt-4o", Temperature: 0.3, MaxTokens: 2048, TopP: 0.9}, fc)

	res, err := o.Process(context.Background(), "hello, buy milk and call mom", "")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Entry != "Hello" {
		t.Errorf("Entry = %q, want %q", res.Entry, "Hello")
	}
	if !reflect.DeepEqual(res.Todos, []string{"buy milk", "call mom"}) {
		t.Errorf("Todos = %#v", res.Todos)
	}
	if res.Usage.TotalTokens != 150 {
		t.Errorf("Usage = %+v", res.Usage)
	}

	req := fc.reqs[0]
	if req.Model != "gpt-4o" || req.MaxTokens != 2048 || req.Temperature != 0.3 || req.TopP != 0.9 {
		t.Errorf("unexpected request params: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Content != SystemPrompt || req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
}

func TestProcessFallsBackToTranscript(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"I could not structure this."}}
	o, _ := newTestOrganizer(Config{}, fc)

	res, err := o.Process(context.Background(), "  raw words  ", "")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Entry != "raw words" {
		t.Errorf("Entry = %q, want raw transcript", res.Entry)
	}
	if len(res.Todos) != 0 {
		t.Errorf("Todos = %#v, want empty", res.Todos)
	}
}

func TestProcessEmptyTranscript(t *testing.T) {
	fc := &fakeCompleter{}
	o, _ := newTestOrganizer(Config{}, fc)

	if _, err := o.Process(context.Background(), " \n ", ""); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
	if fc.calls != 0 {
		t.Errorf("completer called %d times", fc.calls)
	}
}

func TestProcessRetries(t *testing.T) {
	boom := errors.New("503")

	t.Run("recovers", func(t *testing.T) {
		fc := &fakeCompleter{errs: []error{boom, boom, nil}, replies: []string{"", "", "## ORGANIZED ENTRY\nok"}}
		o, slept := newTestOrganizer(Config{MaxAttempts: 3}, fc)

		res, err := o.Process(context.Background(), "text", "")
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if res.Entry != "ok" || fc.calls != 3 {
			t.Errorf("Entry = %q after %d calls", res.Entry, fc.calls)
		}
		if !reflect.DeepEqual(*slept, []time.Duration{time.Second, 2 * time.Second}) {
			t.Errorf("backoff = %v", *slept)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		fc := &fakeCompleter{errs: []error{boom, boom, boom}}
		o, slept := newTestOrganizer(Config{MaxAttempts: 3}, fc)

		_, err := o.Process(context.Background(), "text", "")
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped %v", err, boom)
		}
		if fc.calls != 3 || len(*slept) != 2 {
			t.Errorf("calls = %d, sleeps = %d", fc.calls, len(*slept))
		}
	})
}

func TestProcessCache(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"## ORGANIZED ENTRY\nfirst", "## ORGANIZED ENTRY\nsecond"}}
	o, _ := newTestOrganizer(Config{EnableCache: true}, fc)
	ctx := context.Background()

	first, err := o.Process(ctx, "same", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Process(ctx, "same", "")
	if err != nil {
		t.Fatal(err)
	}
	if fc.calls != 1 {
		t.Errorf("completer called %d times, want 1", fc.calls)
	}
	if !second.Cached || second.Entry != first.Entry {
		t.Errorf("second = %+v, want cached copy of first", second)
	}
	if size, hits, misses := o.Cache().Stats(); size != 1 || hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d, %d, %d", size, hits, misses)
	}

	if _, err := o.Process(ctx, "different", ""); err != nil {
		t.Fatal(err)
	}
	if fc.calls != 2 {
		t.Errorf("completer called %d times, want 2", fc.calls)
	}
}

func TestEstimateCost(t *testing.T) {
	u := Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000}
	tests := []struct {
		model string
		want  float64
		known bool
	}{
		{"gpt-4o", 0.04, true},
		{"gpt-4o-mini", 0.02, true},
		{"gpt-4o-mini-2024-07-18", 0.02, true},
		{"gpt-4o-2024-08-06", 0.04, true},
		{"gpt-3.5-turbo", 0.003, true},
		{"mystery-model", 0.003, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := EstimateCost(tt.model, u); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateCost() = %v, want %v", got, tt.want)
			}
			if _, ok := PriceFor(tt.model); ok != tt.known {
				t.Errorf("PriceFor() ok = %v, want %v", ok, tt.known)
			}
		})
	}
}
