package reason

import (
	"encoding/json"
	"regexp"
	"strings"
)

// rawStep mirrors the JSON shape the prompt prescribes.
type rawStep struct {
	Thinking              string         `json:"thinking"`
	Goal                  string         `json:"goal"`
	ToolName              *string        `json:"tool_name"`
	ToolArgs              map[string]any `json:"tool_args"`
	ContinueReasoning     bool           `json:"continue_reasoning"`
	FinalResponse         string         `json:"final_response"`
	GoalComplianceCheck   string         `json:"goal_compliance_check"`
	ClarificationQuestion string         `json:"clarification_question"`
	Confidence            float64        `json:"confidence"`
}

// parseConsolidated parses the model reply. Strict JSON first, then a
// lenient field extractor, then a fallback step that ends the loop with the
// raw reply as the answer.
func parseConsolidated(reply string) ConsolidatedStep {
	if step, ok := parseStrict(reply); ok {
		return step
	}
	if step, ok := parseLenient(reply); ok {
		return step
	}
	return ConsolidatedStep{
		Thinking:          reply,
		ContinueReasoning: false,
		FinalResponse:     strings.TrimSpace(reply),
		Confidence:        0.1,
		parseFallback:     true,
	}
}

func parseStrict(reply string) (ConsolidatedStep, bool) {
	var raw rawStep
	if err := json.Unmarshal([]byte(extractJSON(reply)), &raw); err != nil {
		return ConsolidatedStep{}, false
	}
	step := ConsolidatedStep{
		Thinking:              raw.Thinking,
		Goal:                  raw.Goal,
		ContinueReasoning:     raw.ContinueReasoning,
		FinalResponse:         raw.FinalResponse,
		GoalComplianceCheck:   raw.GoalComplianceCheck,
		ClarificationQuestion: raw.ClarificationQuestion,
		Confidence:            raw.Confidence,
	}
	if raw.ToolName != nil && *raw.ToolName != "" {
		step.ToolName = *raw.ToolName
		if raw.ToolArgs != nil {
			args, err := json.Marshal(raw.ToolArgs)
			if err == nil {
				step.ToolArgs = args
			}
		}
	}
	if step.Thinking == "" && step.FinalResponse == "" && step.ToolName == "" && step.ClarificationQuestion == "" {
		return ConsolidatedStep{}, false
	}
	return step, true
}

var lenientFields = map[string]*regexp.Regexp{
	"goal":                   regexp.MustCompile(`"goal"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	"final_response":         regexp.MustCompile(`"final_response"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	"clarification_question": regexp.MustCompile(`"clarification_question"\s*:\s*"((?:[^"\\]|\\.)*)"`),
}

// parseLenient salvages the goal, clarification and final response from a
// reply that is not valid JSON as a whole.
func parseLenient(reply string) (ConsolidatedStep, bool) {
	extract := func(field string) string {
		if m := lenientFields[field].FindStringSubmatch(reply); m != nil {
			return unescape(m[1])
		}
		return ""
	}

	step := ConsolidatedStep{
		Goal:                  extract("goal"),
		FinalResponse:         extract("final_response"),
		ClarificationQuestion: extract("clarification_question"),
		ContinueReasoning:     false,
		Confidence:            0.3,
	}
	if step.Goal == "" && step.FinalResponse == "" && step.ClarificationQuestion == "" {
		return ConsolidatedStep{}, false
	}
	step.Thinking = "recovered fields from malformed reply"
	return step, true
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// extractJSON strips markdown fences and surrounding prose from a JSON
// object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return text
}
