// Package openai implements llm.Client over the OpenAI-compatible chat
// completions protocol. Any endpoint speaking that protocol works.
package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	openailib "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/llm"
)

// Config holds OpenAI-compatible client configuration.
type Config struct {
	APIKey     string
	BaseURL    string // empty → api.openai.com
	Model      string
	MaxRetries int // transient-error retries (default 1)
}

// Client implements llm.Client.
type Client struct {
	client *openailib.Client
	config Config
	log    *zap.Logger
}

// NewClient validates config and builds a client.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model cannot be empty")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}

	clientConfig := openailib.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openailib.NewClientWithConfig(clientConfig),
		config: cfg,
		log:    log.Named("openai"),
	}, nil
}

// NewClientFromEnv builds a client for model using OPENAI_API_KEY and the
// optional OPENAI_BASE_URL.
func NewClientFromEnv(model string, log *zap.Logger) (*Client, error) {
	return NewClient(Config{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		BaseURL:    os.Getenv("OPENAI_BASE_URL"),
		Model:      model,
		MaxRetries: 1,
	}, log)
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.config.Model }

// CallLLM sends messages and returns the complete reply, retrying transient
// failures with linear backoff.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("openai: no messages to send")
	}
	ctx, cancel := llm.EnsureDeadline(ctx)
	defer cancel()

	openaiMsgs := make([]openailib.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMsgs[i] = openailib.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openailib.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: openaiMsgs,
	}

	var resp openailib.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, lastErr = c.client.CreateChatCompletion(ctx, req)
		if lastErr == nil {
			break
		}
		if attempt < c.config.MaxRetries {
			wait := time.Duration(attempt+1) * time.Second
			c.log.Warn("retrying LLM call", zap.Int("attempt", attempt+1), zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return llm.Message{}, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return llm.Message{}, fmt.Errorf("openai: call failed after %d retries: %w", c.config.MaxRetries, lastErr)
	}
	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("openai: no choices returned")
	}
	return llm.Message{Role: llm.RoleAssistant, Content: resp.Choices[0].Message.Content}, nil
}
