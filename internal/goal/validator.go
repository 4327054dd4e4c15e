// Package goal validates an agent response against the stated goal with
// deterministic rules. No model calls: classification works on keyword
// families and response shape.
package goal

import (
	"strings"
)

// ComplianceLevel grades how well a response satisfies its goal.
type ComplianceLevel string

const (
	ComplianceFully     ComplianceLevel = "FULLY_COMPLIANT"
	CompliancePartially ComplianceLevel = "PARTIALLY_COMPLIANT"
	ComplianceNon       ComplianceLevel = "NON_COMPLIANT"
	ComplianceUnclear   ComplianceLevel = "UNCLEAR"
)

// Input is one validation request.
type Input struct {
	Goal      string
	Response  string
	ToolsUsed []string
	Context   string
}

// Report is the validation verdict.
type Report struct {
	Level           ComplianceLevel
	Confidence      float64
	Explanation     string
	MissingElements []string
	Suggestions     []string
}

// IsCompliant reports whether the level counts as a pass.
func (r Report) IsCompliant() bool {
	return r.Level == ComplianceFully || r.Level == CompliancePartially
}

// goalTraits classifies the goal text.
type goalTraits struct {
	information    bool
	action         bool
	analysis       bool
	fileOps        bool
	specificFormat bool
}

var (
	informationKeywords = []string{"list", "show", "display", "find", "what", "which", "where"}
	actionKeywords      = []string{"create", "write", "save", "delete", "remove", "read"}
	analysisKeywords    = []string{"analyze", "analyse", "explain", "summarize", "summarise", "compare", "describe"}
	fileOpsKeywords     = []string{"file", "files", "directory", "directories", "workspace", "content"}
	formatKeywords      = []string{"tree", "structure", "format", "table", "json"}
)

func classifyGoal(goal string) goalTraits {
	lower := strings.ToLower(goal)
	return goalTraits{
		information:    containsAny(lower, informationKeywords),
		action:         containsAny(lower, actionKeywords),
		analysis:       containsAny(lower, analysisKeywords),
		fileOps:        containsAny(lower, fileOpsKeywords),
		specificFormat: containsAny(lower, formatKeywords),
	}
}

// responseTraits classifies the response shape.
type responseTraits struct {
	structured  bool
	fileContent bool
	errorSignal bool
	explanation bool
	length      int
	toolsUsed   bool
}

var errorSignals = []string{"error", "failed", "cannot", "unable", "❌", "not found"}

func classifyResponse(response string, toolsUsed []string) responseTraits {
	lower := strings.ToLower(response)
	return responseTraits{
		structured:  hasStructuredOutput(response),
		fileContent: strings.Contains(response, "===") || strings.Contains(lower, "content of"),
		errorSignal: containsAny(lower, errorSignals),
		explanation: sentenceCount(response) > 2,
		length:      len(response),
		toolsUsed:   len(toolsUsed) > 0,
	}
}

func hasStructuredOutput(response string) bool {
	if strings.ContainsAny(response, "│├└") {
		return true
	}
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			return true
		}
		if len(trimmed) > 2 && trimmed[0] >= '0' && trimmed[0] <= '9' && trimmed[1] == '.' {
			return true
		}
	}
	return false
}

func sentenceCount(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

// Validate applies the decision table and confidence adjustments.
func Validate(in Input) Report {
	if strings.TrimSpace(in.Goal) == "" || strings.TrimSpace(in.Response) == "" {
		return Report{
			Level:       ComplianceUnclear,
			Confidence:  0.3,
			Explanation: "goal or response is empty",
		}
	}

	g := classifyGoal(in.Goal)
	r := classifyResponse(in.Response, in.ToolsUsed)

	var (
		level   ComplianceLevel
		reason  string
		missing []string
	)

	switch {
	case r.errorSignal && r.length < 50:
		level = ComplianceNon
		reason = "response reports an error without useful content"
		missing = append(missing, "a successful result")

	case g.information:
		if r.fileContent || r.structured || r.toolsUsed {
			level = ComplianceFully
			reason = "information request answered with concrete results"
		} else if r.length > 20 {
			level = CompliancePartially
			reason = "information request answered with unverified text"
			missing = append(missing, "evidence from tool output")
		} else {
			level = ComplianceNon
			reason = "information request received no substantive answer"
			missing = append(missing, "the requested information")
		}

	case g.action:
		if r.toolsUsed && !r.errorSignal {
			level = ComplianceFully
			reason = "action request executed through tools without errors"
		} else if r.toolsUsed {
			level = CompliancePartially
			reason = "action attempted but the response reports a problem"
			missing = append(missing, "error-free completion")
		} else {
			level = ComplianceNon
			reason = "action request produced no tool activity"
			missing = append(missing, "tool execution")
		}

	case g.analysis:
		if r.length > 100 && r.explanation {
			level = ComplianceFully
			reason = "analysis request answered with a substantial explanation"
		} else if r.length > 50 {
			level = CompliancePartially
			reason = "analysis request answered briefly"
			missing = append(missing, "a fuller explanation")
		} else {
			level = ComplianceNon
			reason = "analysis request received no real analysis"
			missing = append(missing, "an explanation")
		}

	default:
		level = ComplianceUnclear
		reason = "goal does not match a recognized request type"
	}

	confidence := 0.5
	if r.toolsUsed && g.fileOps {
		confidence += 0.3
	}
	if r.structured && g.specificFormat {
		confidence += 0.2
	}
	if r.length > 100 {
		confidence += 0.1
	}
	if r.errorSignal {
		confidence -= 0.2
	}
	if g.fileOps && !r.toolsUsed {
		confidence -= 0.3
	}
	confidence = clamp(confidence, 0.1, 1.0)

	var suggestions []string
	if level == ComplianceNon || level == CompliancePartially {
		if g.fileOps && !r.toolsUsed {
			suggestions = append(suggestions, "Run the relevant workspace tool before answering")
		}
		if g.specificFormat && !r.structured {
			suggestions = append(suggestions, "Render the result in the requested format")
		}
	}

	return Report{
		Level:           level,
		Confidence:      confidence,
		Explanation:     reason,
		MissingElements: missing,
		Suggestions:     suggestions,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
