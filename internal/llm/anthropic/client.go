// Package anthropic implements llm.Client over the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropiclib "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/llm"
)

const defaultMaxTokens = 4096

// Client implements llm.Client.
type Client struct {
	client anthropiclib.Client
	model  string
	log    *zap.Logger
}

// NewClient builds a client for the given model.
func NewClient(apiKey, model string, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic: model cannot be empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		client: anthropiclib.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log.Named("anthropic"),
	}, nil
}

// NewClientFromEnv builds a client using ANTHROPIC_API_KEY.
func NewClientFromEnv(model string, log *zap.Logger) (*Client, error) {
	return NewClient(os.Getenv("ANTHROPIC_API_KEY"), model, log)
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// CallLLM sends messages and returns the complete reply. System messages are
// lifted into the Messages API system field; the rest become turns.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("anthropic: no messages to send")
	}
	ctx, cancel := llm.EnsureDeadline(ctx)
	defer cancel()

	params := anthropiclib.MessageNewParams{
		Model:     anthropiclib.Model(c.model),
		MaxTokens: defaultMaxTokens,
	}

	var turns []anthropiclib.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			params.System = append(params.System, anthropiclib.TextBlockParam{
				Type: "text",
				Text: msg.Content,
			})
		case llm.RoleAssistant:
			turns = append(turns, anthropiclib.NewAssistantMessage(anthropiclib.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropiclib.NewUserMessage(anthropiclib.NewTextBlock(msg.Content)))
		}
	}
	params.Messages = turns

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Message{}, fmt.Errorf("anthropic: call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return llm.Message{Role: llm.RoleAssistant, Content: sb.String()}, nil
}
