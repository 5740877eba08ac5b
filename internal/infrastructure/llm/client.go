package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spendlens/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CompletionRequest carries a single prompt to the model along with the
// sampling bounds the caller wants enforced. Application services accept
// this type through their own narrow client interfaces.
type CompletionRequest struct {
	Prompt        string
	MaxTokens     int
	Temperature   float32
	StopSequences []string
}

// systemPrompt keeps completions terse. Task-specific instructions live
// in the per-request prompt.
const systemPrompt = "You are a concise assistant for a personal expense tracker. Follow the instructions in the user message exactly."

// Client is a chat-completion client backed by the OpenAI API (or any
// OpenAI-compatible endpoint). Safe for concurrent use.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a new Client from configuration. Returns nil when
// the LLM integration is disabled so callers can wire the nil client
// straight into services that treat nil as "always fall back".
func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	if !cfg.Enabled {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:        openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// Complete sends the prompt as a single-turn chat completion and returns
// the trimmed message content. Rate limits and server errors are retried
// with exponential backoff up to the configured attempt budget.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.StopSequences,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			c.logger.Debug("retrying llm completion",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		resp, err := c.api.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			lastErr = err
			if isRetriable(err) {
				continue
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("llm returned no choices")
			continue
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	return "", lastErr
}

func isRetriable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Transport-level failures (timeouts, resets) are worth one more try.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
