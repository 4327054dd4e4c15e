package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wardenlabs/warden/internal/llm"
	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/workspace"
)

const analysisSystemPrompt = `You are a file analysis assistant. You receive the contents of files from a user's workspace and answer questions about them. Base your answer only on the provided file contents. Answer in the language of the question.`

// AnalyzeFilesTool implements answer_question_about_files: it snapshots up to
// MaxFiles workspace files (each truncated to MaxContentPerFile characters),
// composes a prompt with === <path> === headers, and asks the analysis-role
// LLM.
type AnalyzeFilesTool struct {
	ws                *workspace.Workspace
	client            llm.Client
	maxFiles          int
	maxContentPerFile int
}

// NewAnalyzeFilesTool wires the analysis tool. client must be the
// file_analysis role client (provider fallback is resolved at wiring time).
func NewAnalyzeFilesTool(ws *workspace.Workspace, client llm.Client, maxFiles, maxContentPerFile int) *AnalyzeFilesTool {
	return &AnalyzeFilesTool{
		ws:                ws,
		client:            client,
		maxFiles:          maxFiles,
		maxContentPerFile: maxContentPerFile,
	}
}

func (t *AnalyzeFilesTool) Name() string { return "answer_question_about_files" }
func (t *AnalyzeFilesTool) Description() string {
	return "Answer a natural-language question about the files in the workspace. Reads the most recent files, sends their contents to an analysis model, and returns its answer."
}
func (t *AnalyzeFilesTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "question", Type: "string", Description: "The question to answer about the workspace files", Required: true},
	)
}
func (t *AnalyzeFilesTool) Examples() []string {
	return []string{`answer_question_about_files {"question": "which files mention the billing API?"}`}
}

func (t *AnalyzeFilesTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: "invalid arguments: " + err.Error()}, nil
	}
	if strings.TrimSpace(a.Question) == "" {
		return tool.ToolResult{Error: "question cannot be empty"}, nil
	}
	if t.client == nil {
		return tool.ToolResult{Error: "no analysis model is configured; set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY"}, nil
	}

	snaps, err := t.ws.SnapshotFiles(t.maxFiles, t.maxContentPerFile)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	var sb strings.Builder
	sb.WriteString("Question: " + a.Question + "\n\nWorkspace files:\n\n")
	for _, s := range snaps {
		sb.WriteString(fmt.Sprintf("=== %s ===\n%s\n", s.Path, s.Content))
		if s.Truncated {
			sb.WriteString("(truncated)\n")
		}
		sb.WriteString("\n")
	}

	reply, err := t.client.CallLLM(ctx, []llm.Message{
		llm.System(analysisSystemPrompt),
		llm.User(sb.String()),
	})
	if err != nil {
		return tool.ToolResult{Error: "analysis model call failed: " + err.Error()}, nil
	}
	return tool.ToolResult{Output: reply.Content}, nil
}
