package reason

import (
	"fmt"
	"strings"

	"github.com/wardenlabs/warden/internal/tool"
)

const translationPrompt = `Translate the following user request into English. Reply with the translation only, nothing else.`

const consolidatedPromptTemplate = `You are an autonomous file-operations agent working inside a sandboxed workspace at %s.
You can ONLY act through the tools listed below. Never invent tool names or parameters.

%s

User request: %s

%s%sRespond with ONLY one JSON object, no prose, no markdown fences:
{
  "thinking": "your reasoning, in English only",
  "goal": "one-line goal for this request",
  "tool_name": "tool to call now, or null when no tool is needed",
  "tool_args": {},
  "continue_reasoning": true or false,
  "final_response": "the complete answer for the user, empty while you still need tools",
  "clarification_question": "a question for the user when the request is too vague, else empty",
  "goal_compliance_check": "one line on whether the goal is met",
  "confidence": 0.0-1.0
}

Rules:
- Think in English regardless of the user's language. Write final_response in the user's language.
- Call one tool at a time and wait for its result before deciding the next step.
- When the request asks for files AND directories, prefer list_all over list_files.
- Set continue_reasoning to false and fill final_response once you can answer.
- When a tool result already answers the request, summarize it instead of calling more tools.`

// buildPrompt assembles the consolidated prompt for one iteration. Tool
// metadata comes from the registry catalog, never from hard-coded text.
func buildPrompt(query, workspacePath string, steps []Step, chain *tool.ChainContext, catalog string) string {
	var trace string
	if len(steps) > 0 {
		recent := steps
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		var sb strings.Builder
		sb.WriteString("Previous steps:\n")
		for _, s := range recent {
			sb.WriteString("  " + s.summarize() + "\n")
		}
		trace = sb.String() + "\n"
	}

	var chainSummary string
	if chain != nil {
		if s := chain.Summary(); s != "" {
			chainSummary = s + "\n"
		}
	}

	return fmt.Sprintf(consolidatedPromptTemplate, workspacePath, catalog, query, trace, chainSummary)
}
