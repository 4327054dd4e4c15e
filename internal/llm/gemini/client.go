// Package gemini implements llm.Client over the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/wardenlabs/warden/internal/llm"
)

// Client implements llm.Client.
type Client struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewClient builds a client for the given model.
func NewClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini: model cannot be empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model, log: log.Named("gemini")}, nil
}

// NewClientFromEnv builds a client using GEMINI_API_KEY.
func NewClientFromEnv(ctx context.Context, model string, log *zap.Logger) (*Client, error) {
	return NewClient(ctx, os.Getenv("GEMINI_API_KEY"), model, log)
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// CallLLM sends messages and returns the complete reply. System messages
// become the system instruction; the rest map onto user/model contents.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("gemini: no messages to send")
	}
	ctx, cancel := llm.EnsureDeadline(ctx)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return llm.Message{}, fmt.Errorf("gemini: call failed: %w", err)
	}
	return llm.Message{Role: llm.RoleAssistant, Content: resp.Text()}, nil
}
