package classify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"commentsieve/internal/engine"
	"commentsieve/internal/httpx"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 1 * time.Second

	singleMaxTokens = 16
	// batchItemTextLimit bounds how much of each comment is embedded in a
	// batch prompt.
	batchItemTextLimit = 150
)

// Usage tracks token consumption across a client's lifetime.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// provider is one LLM backend. generate sends a prompt and returns the raw
// response text.
type provider interface {
	name() string
	generate(ctx context.Context, prompt string, maxTokens int) (string, Usage, error)
}

// Config configures a classification client.
type Config struct {
	Provider        string // "anthropic" (default), "openai", or "ollama"
	Model           string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaURL       string
	// MaxRetries is the total number of attempts per request. Defaults to 3.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts. Defaults to 1s.
	RetryDelay time.Duration
	// HTTPClient overrides the shared external client, for tests.
	HTTPClient *http.Client
}

// Client classifies texts against categories through an external LLM. It
// retries transport failures with a fixed delay and falls back to the safe
// default label 0 when retries are exhausted; identical single-item requests
// are memoized for the client's lifetime.
type Client struct {
	provider   provider
	cache      *labelCache
	maxRetries int
	retryDelay time.Duration

	mu       sync.Mutex
	usage    Usage
	failures int
}

// New builds a Client for the configured provider.
func New(cfg Config) (*Client, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpx.ExternalHTTPClient()
	}

	var p provider
	switch cfg.Provider {
	case "", "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		p = newAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		p = newOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model, httpClient)
	case "ollama":
		p = newOllamaProvider(cfg.OllamaURL, cfg.Model, httpClient)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return &Client{
		provider:   p,
		cache:      newLabelCache(),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Classify labels one text against one category. Transport failures are
// retried with a fixed delay; after exhaustion the safe default 0 is
// returned and the failure is counted, never surfaced.
func (c *Client) Classify(ctx context.Context, text string, cat engine.Category) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("cannot classify empty text")
	}
	if strings.TrimSpace(cat.Description) == "" {
		return 0, fmt.Errorf("category %q has no description", cat.Name)
	}

	key := cacheKey(text, cat.Name, cat.Description)
	if label, ok := c.cache.get(key); ok {
		return label, nil
	}

	response, err := c.generateWithRetry(ctx, buildSinglePrompt(text, cat), singleMaxTokens)
	if err != nil {
		c.recordFailure()
		log.Printf("classify retries exhausted provider=%s category=%s err=%v (defaulting to 0)", c.provider.name(), cat.Name, err)
		return 0, nil
	}

	label := parseSingleLabel(response)
	c.cache.put(key, label)
	return label, nil
}

// ClassifyBatch labels every text in one request, preserving input length
// and order. Positions whose response line is missing or malformed keep the
// default label 0; a failed batch defaults every position after retries.
func (c *Client) ClassifyBatch(ctx context.Context, texts []string, cat engine.Category) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(cat.Description) == "" {
		return nil, fmt.Errorf("category %q has no description", cat.Name)
	}

	maxTokens := 8*len(texts) + 16
	response, err := c.generateWithRetry(ctx, buildBatchPrompt(texts, cat), maxTokens)
	if err != nil {
		c.recordFailure()
		log.Printf("classify batch retries exhausted provider=%s category=%s items=%d err=%v (defaulting to 0)", c.provider.name(), cat.Name, len(texts), err)
		return make([]int, len(texts)), nil
	}
	return parseBatchLabels(response, len(texts)), nil
}

func (c *Client) generateWithRetry(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
			log.Printf("classify retry provider=%s attempt=%d/%d", c.provider.name(), attempt, c.maxRetries)
		}

		response, usage, err := c.provider.generate(ctx, prompt, maxTokens)
		c.recordUsage(usage)
		if err == nil {
			return response, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func buildSinglePrompt(text string, cat engine.Category) string {
	return fmt.Sprintf(`Analyze the comment below for the category '%s'.

COMMENT: "%s"

Answer with only 1 (yes) or 0 (no) for the category '%s'.

CATEGORY DESCRIPTION:
%s`, cat.Name, text, cat.Name, cat.Description)
}

func buildBatchPrompt(texts []string, cat engine.Category) string {
	var numbered strings.Builder
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if runes := []rune(text); len(runes) > batchItemTextLimit {
			text = string(runes[:batchItemTextLimit])
		}
		fmt.Fprintf(&numbered, "%d. \"%s\"\n", i+1, text)
	}

	return fmt.Sprintf(`Classify each of the comments below by whether it fits the category "%s".

CATEGORY: %s
DESCRIPTION: %s

COMMENTS:
%s
For each comment write only its number and Y (yes) or N (no).
Example format:
1:Y
2:N
3:Y`, cat.Name, cat.Name, cat.Description, numbered.String())
}

func (c *Client) recordUsage(usage Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Add(usage)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

// Usage returns the accumulated token usage.
func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Failures returns how many requests exhausted their retries.
func (c *Client) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// CacheStats returns single-item memoization hit/miss counters.
func (c *Client) CacheStats() (hits, misses int) {
	return c.cache.stats()
}
