// Package supervisor moderates incoming queries before the reasoning loop
// sees them: a deterministic content-filter phase backed by an LLM moderation
// phase with rule-based fallback.
package supervisor

import (
	"time"

	"github.com/wardenlabs/warden/internal/filter"
)

// Decision is the moderation outcome.
type Decision string

const (
	DecisionAllowed        Decision = "ALLOWED"
	DecisionRejected       Decision = "REJECTED"
	DecisionRequiresReview Decision = "REQUIRES_REVIEW"
)

// IntentType classifies what the user wants to do.
type IntentType string

const (
	IntentFileRead        IntentType = "FILE_READ"
	IntentFileWrite       IntentType = "FILE_WRITE"
	IntentFileDelete      IntentType = "FILE_DELETE"
	IntentFileList        IntentType = "FILE_LIST"
	IntentFileQuestion    IntentType = "FILE_QUESTION"
	IntentGeneralQuestion IntentType = "GENERAL_QUESTION"
	IntentProjectAnalysis IntentType = "PROJECT_ANALYSIS"
	IntentUnknown         IntentType = "UNKNOWN"
)

// Intent is the extracted user intent with the tools likely needed to serve
// it.
type Intent struct {
	Type        IntentType        `json:"type"`
	Confidence  float64           `json:"confidence"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	ToolsNeeded []string          `json:"tools_needed,omitempty"`
}

// Request carries one query through moderation. ConversationContext, when
// set, is the previous assistant turn and is only consulted for short
// affirmative or negative follow-ups.
type Request struct {
	UserQuery           string
	ConversationID      string
	Timestamp           time.Time
	ConversationContext string
}

// Response is the moderation verdict.
type Response struct {
	Decision    Decision
	Allowed     bool
	Intent      *Intent
	Reason      string
	RiskFactors []filter.Risk

	// EffectiveQuery is the query downstream components should process: the
	// original query, or the synthesized one for context-dependent
	// follow-ups.
	EffectiveQuery string
}
