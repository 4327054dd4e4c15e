// Package agenterr defines the typed error taxonomy shared by every layer:
// workspace, tools, reasoning, and the server adapters. Each error carries a
// kind, a machine code, an optional context map, and recovery suggestions
// that the agent can render back to the user.
package agenterr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one category in the closed error taxonomy.
type Kind string

const (
	KindAgentInit         Kind = "agent_init"
	KindModelConfig       Kind = "model_config"
	KindToolExecution     Kind = "tool_execution"
	KindReasoning         Kind = "reasoning"
	KindSafetyViolation   Kind = "safety_violation"
	KindConversation      Kind = "conversation"
	KindRateLimit         Kind = "rate_limit"
	KindPathTraversal     Kind = "path_traversal"
	KindSymlink           Kind = "symlink"
	KindSizeLimitExceeded Kind = "size_limit_exceeded"
	KindInvalidMode       Kind = "invalid_mode"
	KindInvalidArgument   Kind = "invalid_argument"
	KindFileNotFound      Kind = "file_not_found"
	KindToolNotFound      Kind = "tool_not_found"
	KindToolArgument      Kind = "tool_argument"
	KindWorkspace         Kind = "workspace"
)

// codes maps each kind to its stable machine code.
var codes = map[Kind]string{
	KindAgentInit:         "AGENT_INIT_ERROR",
	KindModelConfig:       "MODEL_CONFIG_ERROR",
	KindToolExecution:     "TOOL_EXECUTION_ERROR",
	KindReasoning:         "REASONING_ERROR",
	KindSafetyViolation:   "SAFETY_VIOLATION",
	KindConversation:      "CONVERSATION_ERROR",
	KindRateLimit:         "RATE_LIMIT_ERROR",
	KindPathTraversal:     "PATH_TRAVERSAL",
	KindSymlink:           "SYMLINK_ERROR",
	KindSizeLimitExceeded: "SIZE_LIMIT_EXCEEDED",
	KindInvalidMode:       "INVALID_MODE",
	KindInvalidArgument:   "INVALID_ARGUMENT",
	KindFileNotFound:      "FILE_NOT_FOUND",
	KindToolNotFound:      "TOOL_NOT_FOUND",
	KindToolArgument:      "TOOL_ARGUMENT_ERROR",
	KindWorkspace:         "WORKSPACE_ERROR",
}

// Error is the concrete type behind every taxonomy error. It wraps an
// optional cause and satisfies errors.Is/errors.As.
type Error struct {
	Kind        Kind
	Message     string
	Context     map[string]any
	Suggestions []string
	cause       error
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithSuggestions appends recovery suggestions and returns the receiver for
// chaining at the construction site.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithContext records one context key for debug rendering.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Code returns the machine code for the error's kind.
func (e *Error) Code() string {
	if c, ok := codes[e.Kind]; ok {
		return c
	}
	return "UNKNOWN_ERROR"
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err, anywhere in its chain, is a taxonomy error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// KindOf extracts the kind from an error chain. Non-taxonomy errors report an
// empty kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Render formats an error for the user. Debug mode adds the kind, code, and
// context map under the message.
func Render(err error, debug bool) string {
	var b strings.Builder
	b.WriteString("❌ Error: ")
	b.WriteString(err.Error())

	var ae *Error
	if !errors.As(err, &ae) {
		return b.String()
	}

	if debug {
		fmt.Fprintf(&b, "\n   kind=%s code=%s", ae.Kind, ae.Code())
		if len(ae.Context) > 0 {
			keys := make([]string, 0, len(ae.Context))
			for k := range ae.Context {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, ae.Context[k])
			}
		}
	}
	if len(ae.Suggestions) > 0 {
		b.WriteString("\n💡 Suggestions:\n")
		for i, s := range ae.Suggestions {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
