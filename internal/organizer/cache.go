package organizer

import (
	"encoding/json"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Cache memoizes completions for the life of the process. Entries are never
// evicted; the organizer makes a handful of calls a day.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int
	misses  int
}

type cacheEntry struct {
	content string
	usage   Usage
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

type cacheKeyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cacheKey struct {
	Model       string            `json:"model"`
	Messages    []cacheKeyMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

// Key serializes the parts of a request that determine its answer.
func Key(req openai.ChatCompletionRequest) (string, error) {
	k := cacheKey{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		k.Messages = append(k.Messages, cacheKeyMessage{Role: m.Role, Content: m.Content})
	}
	data, err := json.Marshal(k)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Cache) Get(key string) (string, Usage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e.content, e.usage, ok
}

func (c *Cache) Put(key, content string, usage Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{content: content, usage: usage}
}

// Stats returns entry count, hits and misses.
func (c *Cache) Stats() (size, hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.hits, c.misses
}
