// Package tool defines the self-describing tool abstraction, the registry
// that catalogs tools for the process lifetime, and the executor that
// validates and dispatches invocations.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is the unified interface for all tools. Consumers (reasoning loop,
// tool selector, protocol adapter) depend only on this metadata surface and
// never hard-code tool descriptions.
type Tool interface {
	// Name returns the tool identifier (the LLM invokes the tool by this name).
	Name() string

	// Description returns a natural-language description for prompt injection.
	Description() string

	// InputSchema returns a JSON Schema (draft-07 subset) for the parameters:
	// {"type":"object","properties":{...},"required":[...]}.
	InputSchema() json.RawMessage

	// Examples returns example invocations for prompt injection.
	Examples() []string

	// Execute runs the tool with JSON-encoded arguments. Tool-level failures
	// are reported in ToolResult.Error with a nil Go error so the reasoning
	// loop can observe them and plan recovery.
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

// ToolResult encapsulates a tool execution result.
type ToolResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// IsError reports whether the result carries a tool-level failure.
func (r ToolResult) IsError() bool { return r.Error != "" }

// Text returns the error text for failed results, the output otherwise.
func (r ToolResult) Text() string {
	if r.IsError() {
		return r.Error
	}
	return r.Output
}

// Invocation names a tool and its JSON arguments.
type Invocation struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

// SchemaParam describes a single parameter for the BuildSchema helper.
type SchemaParam struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number"
	Description string
	Required    bool
	Enum        []string
}

// BuildSchema generates a JSON Schema object from a list of SchemaParams so
// native tools avoid hand-writing JSON strings.
func BuildSchema(params ...SchemaParam) json.RawMessage {
	properties := make(map[string]any)
	var required []string

	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	data, _ := json.Marshal(schema)
	return data
}

// RequiredParams extracts the "required" list from a tool schema.
func RequiredParams(schema json.RawMessage) []string {
	var doc struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil
	}
	return doc.Required
}

// ParamNames extracts the property names from a tool schema.
func ParamNames(schema json.RawMessage) []string {
	var doc struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil
	}
	names := make([]string, 0, len(doc.Properties))
	for name := range doc.Properties {
		names = append(names, name)
	}
	return names
}
