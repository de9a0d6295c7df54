// Package organizer turns a raw day's transcript into a formatted diary
// entry and a list of to-do items with one chat completion.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrNoChoices       = errors.New("no response choices")
)

// Config holds organizer request parameters.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
	EnableCache      bool
	MaxAttempts      int
}

// Completer is the subset of *openai.Client the organizer uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is one organized entry.
type Result struct {
	Entry          string
	Todos          []string
	Categorization string
	Raw            string
	Usage          Usage
	Cached         bool
}

type Organizer struct {
	cfg    Config
	client Completer
	cache  *Cache
	sleep  func(ctx context.Context, d time.Duration) error
	log    *log.Logger
}

const firstRetryDelay = time.Second

// New builds an organizer. A nil client means a go-openai client for
// cfg.APIKey (and cfg.BaseURL when set).
func New(cfg Config, client Completer, logger *log.Logger) *Organizer {
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if client == nil {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(oc)
	}

	o := &Organizer{
		cfg:    cfg,
		client: client,
		sleep:  sleepCtx,
		log:    logger.WithPrefix("organizer"),
	}
	if cfg.EnableCache {
		o.cache = NewCache()
	}
	return o
}

func (o *Organizer) Model() string { return o.cfg.Model }

// Cache returns nil when caching is disabled.
func (o *Organizer) Cache() *Cache { return o.cache }

// Process organizes transcript against the entries already written today.
// When the response has no usable ORGANIZED ENTRY section the trimmed raw
// transcript is used as the entry.
func (o *Organizer) Process(ctx context.Context, transcript, priorEntries string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(transcript, priorEntries)},
	}

	start := time.Now()
	content, usage, cached, err := o.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Raw:    content,
		Usage:  usage,
		Cached: cached,
		Todos:  ExtractTodoItems(content),
	}
	res.Categorization, _ = ParseSection(content, HeadingCategorization)
	entry, ok := ParseSection(content, HeadingOrganizedEntry)
	if !ok || entry == "" {
		o.log.Warn("response has no organized entry section, keeping raw transcript")
		entry = strings.TrimSpace(transcript)
	}
	res.Entry = entry

	o.log.Info("entry organized", "duration", time.Since(start), "todos", len(res.Todos), "cached", cached)
	if !cached {
		o.log.Info(fmt.Sprintf("Token usage: %d prompt + %d completion = %d total",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens),
			"cost", fmt.Sprintf("$%.4f", EstimateCost(o.cfg.Model, usage)))
	}
	return res, nil
}

func (o *Organizer) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, Usage, bool, error) {
	req := openai.ChatCompletionRequest{
		Model:            o.cfg.Model,
		Messages:         messages,
		Temperature:      o.cfg.Temperature,
		MaxTokens:        o.cfg.MaxTokens,
		TopP:             o.cfg.TopP,
		FrequencyPenalty: o.cfg.FrequencyPenalty,
		PresencePenalty:  o.cfg.PresencePenalty,
	}

	var key string
	if o.cache != nil {
		k, err := Key(req)
		if err == nil {
			key = k
			if content, usage, ok := o.cache.Get(key); ok {
				o.log.Debug("cache hit")
				return content, usage, true, nil
			}
		}
	}

	delay := firstRetryDelay
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err == nil && len(resp.Choices) == 0 {
			err = ErrNoChoices
		}
		if err == nil {
			content := resp.Choices[0].Message.Content
			usage := Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
			if key != "" {
				o.cache.Put(key, content, usage)
			}
			return content, usage, false, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", Usage{}, false, ctx.Err()
		}
		if attempt == o.cfg.MaxAttempts {
			break
		}
		o.log.Warn("chat completion failed, retrying", "attempt", attempt, "after", time.Since(start), "retry_in", delay, "err", err)
		if err := o.sleep(ctx, delay); err != nil {
			return "", Usage{}, false, err
		}
		delay *= 2
	}
	return "", Usage{}, false, fmt.Errorf("chat completion failed after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
