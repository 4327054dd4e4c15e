// Package llm defines the provider-neutral client interface and the
// role-based router that maps each core role (agent, supervisor,
// file_analysis, orchestrator) onto a configured provider+model.
package llm

import (
	"context"
	"time"
)

// Message is a chat message for LLM communication.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client is the minimal capability every provider implements. Callers always
// pass a context; providers apply DefaultDeadline when none is set.
type Client interface {
	// CallLLM sends messages and returns the complete assistant reply.
	CallLLM(ctx context.Context, messages []Message) (Message, error)

	// Model returns the configured model name, for logging and health.
	Model() string
}

// DefaultDeadline is the minimum deadline applied to every LLM call whose
// context carries none.
const DefaultDeadline = 60 * time.Second

// EnsureDeadline returns a context that carries a deadline, applying
// DefaultDeadline when the caller supplied none.
func EnsureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultDeadline)
}

// System and User are small constructors that keep call sites tidy.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }
