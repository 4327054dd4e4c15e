// Package reason drives the consolidated ReAct loop: one model call per
// iteration yields thinking, an optional tool invocation, a continuation
// flag and an optional final answer, all in a single structured reply.
package reason

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase labels a scratchpad entry.
type Phase string

const (
	PhaseThink   Phase = "THINK"
	PhaseAct     Phase = "ACT"
	PhaseObserve Phase = "OBSERVE"
)

// Step is one append-only scratchpad entry. The ordered sequence of steps is
// the authoritative reasoning trace for a request.
type Step struct {
	Phase      Phase           `json:"phase"`
	Number     int             `json:"step_number"`
	Content    string          `json:"content"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`
	ToolResult string          `json:"tool_result,omitempty"`
}

// summarize renders a step for prompt injection, truncated to keep the
// prompt bounded.
func (s Step) summarize() string {
	const maxLen = 200
	text := s.Content
	if s.Phase == PhaseAct {
		text = fmt.Sprintf("%s(%s) -> %s", s.ToolName, string(s.ToolArgs), s.ToolResult)
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > maxLen {
		text = text[:maxLen] + "…"
	}
	return fmt.Sprintf("[%d %s] %s", s.Number, s.Phase, text)
}

// StepKind discriminates the mutually exclusive shapes of a consolidated
// reply.
type StepKind int

const (
	StepToolCall StepKind = iota + 1
	StepFinal
	StepClarification
	StepParseFallback
)

// ConsolidatedStep is the model's structured reply for one iteration.
type ConsolidatedStep struct {
	Thinking              string
	Goal                  string
	ToolName              string
	ToolArgs              json.RawMessage
	ContinueReasoning     bool
	FinalResponse         string
	GoalComplianceCheck   string
	ClarificationQuestion string
	Confidence            float64

	parseFallback bool
}

// Kind classifies the reply. A tool call wins over a clarification; a
// clarification only counts when no tool runs in the same iteration.
func (c ConsolidatedStep) Kind() StepKind {
	switch {
	case c.parseFallback:
		return StepParseFallback
	case c.ToolName != "":
		return StepToolCall
	case c.ClarificationQuestion != "":
		return StepClarification
	default:
		return StepFinal
	}
}
