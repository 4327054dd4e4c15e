package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/goal"
	"github.com/wardenlabs/warden/internal/llm"
	"github.com/wardenlabs/warden/internal/selector"
	"github.com/wardenlabs/warden/internal/tool"
)

// DefaultMaxIterations caps the reasoning loop.
const DefaultMaxIterations = 10

const clarificationMarker = "🤔"

// Options configures a Loop.
type Options struct {
	Client        llm.Client
	Executor      *tool.Executor
	Registry      *tool.Registry
	Selector      *selector.Selector
	WorkspacePath string
	MaxIterations int
	Logger        *zap.Logger
}

// Loop runs the consolidated reasoning cycle for one request at a time.
// Instances are stateless across calls; all per-request state lives on the
// stack of Run.
type Loop struct {
	client        llm.Client
	executor      *tool.Executor
	registry      *tool.Registry
	selector      *selector.Selector
	workspacePath string
	maxIterations int
	log           *zap.Logger
}

func NewLoop(opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		client:        opts.Client,
		executor:      opts.Executor,
		registry:      opts.Registry,
		selector:      opts.Selector,
		workspacePath: opts.WorkspacePath,
		maxIterations: opts.MaxIterations,
		log:           log.Named("reason"),
	}
}

// Outcome is the loop result handed to the agent façade.
type Outcome struct {
	Response       string
	ToolsUsed      []string
	Steps          []Step
	Success        bool
	ErrorMessage   string
	Goal           string
	GoalCompliance *goal.Report
}

// Run processes one query to completion. The loop terminates on a final
// response, a cleared continuation flag, the iteration cap, or context
// cancellation at an iteration boundary.
func (l *Loop) Run(ctx context.Context, query string) Outcome {
	synthesized := synthesizeGoal(query)
	if synthesized == GoalAmbiguous || synthesized == GoalNeedsFileSpec {
		return l.clarify(query, synthesized)
	}

	if l.client == nil {
		return Outcome{
			Success:      false,
			ErrorMessage: "no reasoning model configured",
			Response:     "I cannot reason about this request: no model is configured. Set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY.",
		}
	}

	var steps []Step
	working := query
	if !looksEnglish(query) {
		working = l.translate(ctx, query, &steps)
	}

	chain := tool.NewChainContext()
	catalog := l.registry.CatalogPrompt()

	var (
		toolsUsed      []string
		goalText       string
		lastThinking   string
		lastToolResult string
		final          ConsolidatedStep
		toolRanLastIt  bool
	)

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if ctx.Err() != nil {
			return Outcome{
				Response:     l.partialResponse(lastToolResult, chain, lastThinking),
				ToolsUsed:    toolsUsed,
				Steps:        steps,
				Success:      false,
				ErrorMessage: "cancelled",
				Goal:         pickGoal(goalText, synthesized),
			}
		}

		prompt := buildPrompt(working, l.workspacePath, steps, chain, catalog)
		reply, err := l.client.CallLLM(ctx, []llm.Message{llm.User(prompt)})
		if err != nil {
			return Outcome{
				Response:     l.partialResponse(lastToolResult, chain, lastThinking),
				ToolsUsed:    toolsUsed,
				Steps:        steps,
				Success:      false,
				ErrorMessage: "reasoning model call failed: " + err.Error(),
				Goal:         pickGoal(goalText, synthesized),
			}
		}

		cs := parseConsolidated(reply.Content)
		if goalText == "" && cs.Goal != "" {
			goalText = cs.Goal
		}
		if cs.Thinking != "" {
			lastThinking = cs.Thinking
		}
		steps = append(steps, Step{
			Phase:   PhaseThink,
			Number:  len(steps) + 1,
			Content: cs.Thinking,
		})

		toolRanLastIt = false
		if cs.Kind() == StepFinal && cs.ContinueReasoning && cs.FinalResponse == "" {
			// The model wants another step but named no tool; let the
			// selector pick one from the same reasoning text.
			cs = l.consultSelector(ctx, working, cs, chain)
		}
		if cs.Kind() == StepToolCall {
			result := l.act(ctx, cs, chain, &steps)
			toolRanLastIt = true
			toolsUsed = appendUnique(toolsUsed, cs.ToolName)
			if result != nil {
				lastToolResult = *result
			}
		}

		if !cs.ContinueReasoning || cs.FinalResponse != "" {
			final = cs
			break
		}
		if iteration == l.maxIterations {
			final = cs
			l.log.Warn("iteration cap reached", zap.Int("max_iterations", l.maxIterations))
		}
	}

	if final.Kind() == StepClarification && !toolRanLastIt {
		out := l.clarify(query, final.ClarificationQuestion)
		out.Steps = steps
		out.ToolsUsed = toolsUsed
		out.Goal = pickGoal(goalText, synthesized)
		return out
	}

	response := final.FinalResponse
	if response == "" {
		response = l.partialResponse(lastToolResult, chain, lastThinking)
	}

	out := Outcome{
		Response:  response,
		ToolsUsed: toolsUsed,
		Steps:     steps,
		Success:   true,
		Goal:      pickGoal(goalText, synthesized),
	}
	rep := goal.Validate(goal.Input{
		Goal:      out.Goal,
		Response:  out.Response,
		ToolsUsed: out.ToolsUsed,
	})
	out.GoalCompliance = &rep
	return out
}

// act runs one tool invocation and appends the ACT step. Infrastructure
// errors (unknown tool, invalid arguments) become the step result so the
// model can observe them and re-plan; they never abort the loop. Returns the
// result text for successful calls only.
func (l *Loop) act(ctx context.Context, cs ConsolidatedStep, chain *tool.ChainContext, steps *[]Step) *string {
	var resultText string
	var success bool

	res, err := l.executor.Execute(ctx, tool.Invocation{
		ToolName:  cs.ToolName,
		Arguments: cs.ToolArgs,
	}, chain)
	if err != nil {
		resultText = err.Error()
	} else {
		resultText = res.Text()
		success = !res.IsError()
	}

	*steps = append(*steps, Step{
		Phase:      PhaseAct,
		Number:     len(*steps) + 1,
		Content:    "executed " + cs.ToolName,
		ToolName:   cs.ToolName,
		ToolArgs:   cs.ToolArgs,
		ToolResult: resultText,
	})
	l.log.Debug("act step",
		zap.String("tool", cs.ToolName),
		zap.Bool("success", success))

	if success {
		return &resultText
	}
	return nil
}

// consultSelector resolves a continuation that names no tool. Low-confidence
// selections and the help fallback leave the step unchanged.
func (l *Loop) consultSelector(ctx context.Context, query string, cs ConsolidatedStep, chain *tool.ChainContext) ConsolidatedStep {
	if l.selector == nil {
		return cs
	}
	sel := l.selector.Select(ctx, query, chain.Summary())
	if sel.SelectedTool == "" || sel.SelectedTool == "help" || sel.Confidence < 0.4 {
		return cs
	}
	cs.ToolName = sel.SelectedTool
	if len(sel.SuggestedParameters) > 0 {
		if args, err := json.Marshal(sel.SuggestedParameters); err == nil {
			cs.ToolArgs = args
		}
	}
	l.log.Debug("selector chose tool",
		zap.String("tool", sel.SelectedTool),
		zap.Float64("confidence", sel.Confidence))
	return cs
}

// translate rewrites a non-English query into English for reasoning. The
// original query is what the user sees echoed back; translation failures
// fall through to the original text.
func (l *Loop) translate(ctx context.Context, query string, steps *[]Step) string {
	reply, err := l.client.CallLLM(ctx, []llm.Message{
		llm.System(translationPrompt),
		llm.User(query),
	})
	if err != nil || strings.TrimSpace(reply.Content) == "" {
		l.log.Warn("translation failed, reasoning over original query", zap.Error(err))
		return query
	}
	translated := strings.TrimSpace(reply.Content)
	*steps = append(*steps, Step{
		Phase:   PhaseThink,
		Number:  len(*steps) + 1,
		Content: fmt.Sprintf("translated query to English: %s", translated),
	})
	return translated
}

// partialResponse is the fallback chain when no final response exists: last
// successful tool result, then a synthesized chain summary, then the last
// thinking text.
func (l *Loop) partialResponse(lastToolResult string, chain *tool.ChainContext, lastThinking string) string {
	if lastToolResult != "" {
		return lastToolResult
	}
	if chain != nil {
		if s := chain.Summary(); s != "" {
			return "Here is what I found so far:\n" + s
		}
	}
	if lastThinking != "" {
		return lastThinking
	}
	return "I could not produce an answer for this request."
}

// clarify renders a clarification response: marker, body, and a restatement
// of the original query.
func (l *Loop) clarify(query, reason string) Outcome {
	var body string
	switch reason {
	case GoalAmbiguous:
		body = "I can list files and directories, read a file, create or update a file, delete a file, or answer questions about the files in your workspace. What would you like me to do?"
	case GoalNeedsFileSpec:
		body = "Which file should I work on? Please give me its name, or ask me to list the files first."
	default:
		body = reason
	}
	return Outcome{
		Response: fmt.Sprintf("%s %s\n\nYour request: %q", clarificationMarker, body, query),
		Success:  true,
		Goal:     goalForClarification(reason),
	}
}

func goalForClarification(reason string) string {
	if reason == GoalAmbiguous || reason == GoalNeedsFileSpec {
		return reason
	}
	return GoalAmbiguous
}

func pickGoal(fromModel, synthesized string) string {
	if fromModel != "" {
		return fromModel
	}
	return synthesized
}

func appendUnique(list []string, name string) []string {
	for _, v := range list {
		if v == name {
			return list
		}
	}
	return append(list, name)
}
